package asset

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTetAsset() *MeshAsset {
	return New(
		[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 1, 1},
		[]int32{0, 1, 2, 3, 1, 2, 3, 4},
	)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := New(
		[]float32{-0.1, 0.2000001, 1e-7, 3.4028235e38, -1.17549435e-38, 0.33333334,
			0.05, 0.15, -0.075, 0.1, 0.1, 0.1},
		[]int32{0, 2, 1, 3},
	)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, a))
	assert.True(t, strings.HasPrefix(buf.String(), `{"pos":[`))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.Pos, got.Pos)
	assert.Equal(t, a.Tet, got.Tet)
	assert.Equal(t, 4, got.NodeCount())
	assert.Equal(t, 1, got.TetCount())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mesh.json")
	a := twoTetAsset()
	require.NoError(t, Save(path, a))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"PosNotMultipleOf3", `{"pos":[0,0,0,1],"tet":[]}`, "pos"},
		{"TetNotMultipleOf4", `{"pos":[0,0,0],"tet":[0,0,0]}`, "tet"},
		{"TetIndexOutOfRange", `{"pos":[0,0,0,1,0,0,0,1,0,0,0,1],"tet":[0,1,2,4]}`, "tet"},
		{"NotJSON", `pos: [0, 0, 0]`, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected FormatError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestSaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Save(filepath.Join(blocker, "mesh.json"), twoTetAsset())
	var ioe *IoError
	require.True(t, errors.As(err, &ioe), "expected IoError, got %v", err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var ioe *IoError
	require.True(t, errors.As(err, &ioe))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEncodeRejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, &MeshAsset{Pos: []float32{0, 0}})
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, buf.Len())
}

func TestSaveRejectsNonFinite(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "nan.json")
	for _, v := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		a := twoTetAsset()
		a.Pos[4] = v
		err := Save(fileName, a)
		var fe *FormatError
		require.True(t, errors.As(err, &fe), "expected FormatError, got %v", err)
		assert.Equal(t, "pos", fe.Field)
		var ioe *IoError
		assert.False(t, errors.As(err, &ioe))
	}
	_, err := os.Stat(fileName)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
