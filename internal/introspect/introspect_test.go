package introspect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	werrors "github.com/toyz/weaver/internal/errors"
	"github.com/toyz/weaver/pkg/weaver"
)

const storeSource = `package store

type Reader interface {
	Read(p []byte) (int, error)
}

type Closer interface {
	Close() error
}

type ReadCloser interface {
	Reader
	Closer
}

type Base struct{}

func (b *Base) Close() error { return nil }

type File struct {
	*Base
	name string
}

func NewFile(name string) *File { return &File{name: name} }

func (f File) Read(p []byte) (int, error) { return 0, nil }

type Count int

func (c Count) Get(key string, n int) int { return 0 }

func (c *Count) Put(key string, values ...int) {}
`

func loadStore(t *testing.T) *Program {
	t.Helper()
	prog, err := ParseSource("example.com/store", "store.go", storeSource)
	require.NoError(t, err)
	return prog
}

func lookup(t *testing.T, prog *Program, name string) *TypeInfo {
	t.Helper()
	info, ok := prog.Lookup("example.com/store." + name)
	require.True(t, ok, "type %s not found", name)
	return info
}

func TestTypesInDeclarationOrder(t *testing.T) {
	prog := loadStore(t)

	var names []string
	for _, info := range prog.Types() {
		names = append(names, info.QualifiedName())
	}
	assert.Equal(t, []string{
		"example.com/store.Reader",
		"example.com/store.Closer",
		"example.com/store.ReadCloser",
		"example.com/store.Base",
		"example.com/store.File",
		"example.com/store.Count",
	}, names)

	assert.Equal(t, KindInterface, lookup(t, prog, "Reader").Kind())
	assert.Equal(t, KindStruct, lookup(t, prog, "File").Kind())
	assert.Equal(t, KindOther, lookup(t, prog, "Count").Kind())
	assert.Equal(t, "store.go", lookup(t, prog, "File").Position().Filename)
}

func TestMethods(t *testing.T) {
	prog := loadStore(t)

	file := lookup(t, prog, "File").Methods()
	require.Len(t, file, 3)
	assert.Equal(t, "NewFile(string)", file[0].String())
	assert.True(t, file[0].IsConstructor())
	assert.Equal(t, "Close()", file[1].String(), "promoted through *Base")
	assert.Equal(t, "Read([]byte)", file[2].String())
	assert.False(t, file[2].IsAbstract())

	count := lookup(t, prog, "Count").Methods()
	require.Len(t, count, 2)
	assert.Equal(t, "Get(string, int)", count[0].String())
	assert.Equal(t, "Put(string, []int)", count[1].String(), "pointer receivers are included")

	rc := lookup(t, prog, "ReadCloser").Methods()
	require.Len(t, rc, 2)
	for _, m := range rc {
		assert.True(t, m.IsAbstract(), m.String())
	}
}

func TestIsSubtypeOf(t *testing.T) {
	prog := loadStore(t)

	tests := []struct {
		typ   string
		super string
		want  bool
	}{
		{"File", "example.com/store.File", true},
		{"File", "example.com/store.Reader", true},
		{"File", "example.com/store.Closer", true},
		{"File", "example.com/store.ReadCloser", true},
		{"File", "example.com/store.Base", true},
		{"Base", "example.com/store.Closer", true},
		{"Base", "example.com/store.Reader", false},
		{"Base", "example.com/store.File", false},
		{"ReadCloser", "example.com/store.Reader", true},
		{"Reader", "example.com/store.ReadCloser", false},
		{"Count", "example.com/store.Reader", false},
		{"File", "io.Reader", false},
		{"File", " example.com/store.File ", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ+" <: "+tt.super, func(t *testing.T) {
			assert.Equal(t, tt.want, lookup(t, prog, tt.typ).IsSubtypeOf(tt.super))
		})
	}
}

func TestTypeInfoSelectedBySelectors(t *testing.T) {
	prog := loadStore(t)
	file := lookup(t, prog, "File")

	subtype, err := weaver.SubtypeSelector("example.com/store.Reader")
	require.NoError(t, err)
	exact, err := weaver.ExactSelector("example.com/store.Reader")
	require.NoError(t, err)

	assert.True(t, subtype.Selects(file))
	assert.False(t, exact.Selects(file))
	assert.True(t, exact.Selects(lookup(t, prog, "Reader")))
}

func TestParseSourceErrors(t *testing.T) {
	_, err := ParseSource("example.com/bad", "bad.go", "package bad\nfunc {")
	assert.ErrorIs(t, err, werrors.SyntaxErrorCode)

	_, err = ParseSource("example.com/bad", "bad.go", "package bad\nvar x Missing\n")
	assert.ErrorIs(t, err, werrors.ResolutionErrorCode)
}

func TestLoadModule(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/fixture\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.go"), []byte(`package fixture

import "io"

type Stream struct{}

func (s *Stream) Read(p []byte) (int, error) { return 0, io.EOF }
`), 0o644))

	prog, err := Load(context.Background(), Options{Dir: dir}, "./...")
	require.NoError(t, err)

	stream, ok := prog.Lookup("example.com/fixture.Stream")
	require.True(t, ok)
	assert.True(t, stream.IsSubtypeOf("io.Reader"))
	assert.False(t, stream.IsSubtypeOf("io.Writer"))
}
