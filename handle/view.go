package handle

import (
	"bytes"
	"io"

	"github.com/reel-cli/reel/filesystem"
	"golang.org/x/exp/mmap"
)

// View is a read-only mapping of a file's bytes.
type View interface {
	io.ReaderAt
	io.Closer
	Len() int
}

// Mapper turns a file path into a View.
type Mapper func(path string) (View, error)

// MapFile memory-maps path read-only.
func MapFile(path string) (View, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MapBuffered reads path through the virtual filesystem into memory.
// It backs handles when the active filesystem is not the OS one.
func MapBuffered(path string) (View, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &bufferView{Reader: bytes.NewReader(data), size: len(data)}, nil
}

func defaultMapper(path string) (View, error) {
	if filesystem.IsOs() {
		return MapFile(path)
	}
	return MapBuffered(path)
}

type bufferView struct {
	*bytes.Reader
	size int
}

func (b *bufferView) Len() int     { return b.size }
func (b *bufferView) Close() error { return nil }
