package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Gmsh element type code of the 4-node tetrahedron
const gmshTet4 = 4

// ParseError reports malformed or missing content in a source mesh. Line is
// 1-based; zero means the error is not tied to a line.
type ParseError struct {
	Line  int
	Field string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("gmsh parse error at line %d (%s): %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("gmsh parse error (%s): %s", e.Field, e.Msg)
}

// lineReader tracks line numbers for error reporting
type lineReader struct {
	scanner *bufio.Scanner
	line    int
	text    string
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lineReader{scanner: scanner}
}

func (lr *lineReader) next() bool {
	if !lr.scanner.Scan() {
		return false
	}
	lr.line++
	lr.text = strings.TrimSpace(lr.scanner.Text())
	return true
}

// nextNonBlank advances to the next line with content.
func (lr *lineReader) nextNonBlank() bool {
	for lr.next() {
		if lr.text != "" {
			return true
		}
	}
	return false
}

// ReadGmsh reads the nodes and tetrahedra of a Gmsh 2.2 ASCII file.
func ReadGmsh(filename string) (pos []float32, tet []int32, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	return ParseGmsh(file)
}

// ParseGmsh extracts node coordinates and tetrahedral connectivity from Gmsh
// 2.2 ASCII text. Node ids are ignored: file order defines the node index.
// Element node references are 1-based in the file and 0-based in tet.
// Only elements of type 4 (linear tetrahedron) are kept. On error no arrays
// are returned.
func ParseGmsh(r io.Reader) (pos []float32, tet []int32, err error) {
	var (
		haveNodes, haveElems bool
		elemRefs, elemLines  []int
		nodeCount            int
	)
	lr := newLineReader(r)

	for lr.next() {
		switch {
		case strings.Contains(lr.text, "$MeshFormat"):
			if err = readMeshFormat22(lr); err != nil {
				return nil, nil, err
			}
		case strings.Contains(lr.text, "$Nodes"):
			if pos, err = readNodes22(lr); err != nil {
				return nil, nil, err
			}
			nodeCount = len(pos) / 3
			haveNodes = true
		case strings.Contains(lr.text, "$Elements"):
			if elemRefs, elemLines, err = readElements22(lr); err != nil {
				return nil, nil, err
			}
			haveElems = true
		}
		if haveNodes && haveElems {
			break
		}
	}
	if err = lr.scanner.Err(); err != nil {
		return nil, nil, &ParseError{Line: lr.line, Field: "input", Msg: err.Error()}
	}
	if !haveNodes {
		return nil, nil, &ParseError{Field: "$Nodes", Msg: "node block marker not found"}
	}
	if !haveElems {
		return nil, nil, &ParseError{Field: "$Elements", Msg: "element block marker not found"}
	}

	tet = make([]int32, len(elemRefs))
	for i, ref := range elemRefs {
		if ref < 1 || ref > nodeCount {
			return nil, nil, &ParseError{Line: elemLines[i/4], Field: "element",
				Msg: fmt.Sprintf("tetrahedron %d references node %d outside [1, %d]", i/4, ref, nodeCount)}
		}
		tet[i] = int32(ref - 1)
	}
	return pos, tet, nil
}

// readMeshFormat22 checks that the file declares a 2.x format
func readMeshFormat22(lr *lineReader) error {
	if !lr.nextNonBlank() {
		return &ParseError{Line: lr.line, Field: "$MeshFormat", Msg: "unexpected EOF"}
	}
	parts := strings.Fields(lr.text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "2.") {
		return &ParseError{Line: lr.line, Field: "$MeshFormat",
			Msg: fmt.Sprintf("unsupported Gmsh format version %q", lr.text)}
	}
	if len(parts) > 1 && parts[1] != "0" {
		return &ParseError{Line: lr.line, Field: "$MeshFormat", Msg: "binary Gmsh files are not supported"}
	}
	for lr.next() {
		if lr.text == "$EndMeshFormat" {
			break
		}
	}
	return nil
}

func readCount(lr *lineReader, field string) (int, error) {
	if !lr.nextNonBlank() {
		return 0, &ParseError{Line: lr.line, Field: field, Msg: "unexpected EOF reading count"}
	}
	n, err := strconv.Atoi(strings.Fields(lr.text)[0])
	if err != nil || n < 0 {
		return 0, &ParseError{Line: lr.line, Field: field, Msg: fmt.Sprintf("invalid count %q", lr.text)}
	}
	return n, nil
}

// readNodes22 reads "id x y z" lines into a flat xyz array
func readNodes22(lr *lineReader) ([]float32, error) {
	numNodes, err := readCount(lr, "$Nodes")
	if err != nil {
		return nil, err
	}
	// grown as lines arrive; the declared count is not trusted for allocation
	var pos []float32
	for i := 0; i < numNodes; i++ {
		if !lr.nextNonBlank() || strings.HasPrefix(lr.text, "$End") {
			return nil, &ParseError{Line: lr.line, Field: "$Nodes",
				Msg: fmt.Sprintf("declared %d nodes, found %d", numNodes, i)}
		}
		parts := strings.Fields(lr.text)
		if len(parts) < 4 {
			return nil, &ParseError{Line: lr.line, Field: "node",
				Msg: fmt.Sprintf("expected \"id x y z\", got %q", lr.text)}
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(parts[1+j], 32)
			if err != nil {
				return nil, &ParseError{Line: lr.line, Field: "node",
					Msg: fmt.Sprintf("bad coordinate %q", parts[1+j])}
			}
			pos = append(pos, float32(v))
		}
	}
	return pos, nil
}

// readElements22 returns the 1-based node references of every tetrahedron
// and the source line of each one
func readElements22(lr *lineReader) (refs, lines []int, err error) {
	numElements, err := readCount(lr, "$Elements")
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < numElements; i++ {
		if !lr.nextNonBlank() || strings.HasPrefix(lr.text, "$End") {
			return nil, nil, &ParseError{Line: lr.line, Field: "$Elements",
				Msg: fmt.Sprintf("declared %d elements, found %d", numElements, i)}
		}
		parts := strings.Fields(lr.text)
		if len(parts) < 3 {
			return nil, nil, &ParseError{Line: lr.line, Field: "element",
				Msg: fmt.Sprintf("expected \"id type ntags ...\", got %q", lr.text)}
		}
		elemType, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, nil, &ParseError{Line: lr.line, Field: "element", Msg: fmt.Sprintf("bad type %q", parts[1])}
		}
		if elemType != gmshTet4 {
			continue
		}
		numTags, err := strconv.Atoi(parts[2])
		if err != nil || numTags < 0 {
			return nil, nil, &ParseError{Line: lr.line, Field: "element", Msg: fmt.Sprintf("bad tag count %q", parts[2])}
		}
		nodeStart := 3 + numTags
		if len(parts) < nodeStart+4 {
			return nil, nil, &ParseError{Line: lr.line, Field: "element",
				Msg: fmt.Sprintf("tetrahedron %s: expected 4 nodes, got %d", parts[0], max(len(parts)-nodeStart, 0))}
		}
		for j := 0; j < 4; j++ {
			ref, err := strconv.Atoi(parts[nodeStart+j])
			if err != nil {
				return nil, nil, &ParseError{Line: lr.line, Field: "element",
					Msg: fmt.Sprintf("bad node reference %q", parts[nodeStart+j])}
			}
			refs = append(refs, ref)
		}
		lines = append(lines, lr.line)
	}
	return refs, lines, nil
}
