package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteGmsh22 writes nodes and tetrahedra as Gmsh 2.2 ASCII. Node ids and
// element node references are written 1-based; every tetrahedron carries
// the two default tags (physical 0, elementary 1).
func WriteGmsh22(w io.Writer, pos []float32, tet []int32) error {
	if len(pos)%3 != 0 || len(tet)%4 != 0 {
		return fmt.Errorf("gmsh writer: pos length %d / tet length %d not multiples of 3 / 4",
			len(pos), len(tet))
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "$MeshFormat")
	fmt.Fprintln(bw, "2.2 0 8")
	fmt.Fprintln(bw, "$EndMeshFormat")

	numNodes := len(pos) / 3
	fmt.Fprintln(bw, "$Nodes")
	fmt.Fprintln(bw, numNodes)
	for i := 0; i < numNodes; i++ {
		fmt.Fprintf(bw, "%d %s %s %s\n", i+1,
			formatCoord(pos[3*i]), formatCoord(pos[3*i+1]), formatCoord(pos[3*i+2]))
	}
	fmt.Fprintln(bw, "$EndNodes")

	numTets := len(tet) / 4
	fmt.Fprintln(bw, "$Elements")
	fmt.Fprintln(bw, numTets)
	for k := 0; k < numTets; k++ {
		// Format: elem-id elem-type num-tags tag1 tag2 node1 node2 node3 node4
		fmt.Fprintf(bw, "%d %d 2 0 1 %d %d %d %d\n", k+1, gmshTet4,
			tet[4*k]+1, tet[4*k+1]+1, tet[4*k+2]+1, tet[4*k+3]+1)
	}
	fmt.Fprintln(bw, "$EndElements")

	return bw.Flush()
}

// WriteGmsh22File writes a Gmsh 2.2 file at filename.
func WriteGmsh22File(filename string, pos []float32, tet []int32) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteGmsh22(file, pos, tet)
}

// formatCoord uses the shortest representation that parses back to the same float32
func formatCoord(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
