package media

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/reel-cli/reel/errs"
)

// DefaultMaxSize is the size ceiling applied when none is configured.
const DefaultMaxSize int64 = 2 << 30

// Acceptor decides whether a file may be turned into a playback handle.
type Acceptor interface {
	IsAcceptable(f *File) bool
}

// Explainer is implemented by acceptors that can say why a file was rejected.
type Explainer interface {
	Explain(f *File) error
}

// Policy is the default privacy and size precondition.
type Policy struct {
	MaxSize int64
}

// NewPolicy returns a policy with the given ceiling in bytes, or DefaultMaxSize when non-positive.
func NewPolicy(maxSize int64) *Policy {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Policy{MaxSize: maxSize}
}

// IsAcceptable reports whether f passes every precondition.
func (p *Policy) IsAcceptable(f *File) bool {
	return p.Explain(f) == nil
}

// Explain returns the FileError for the first failed precondition, or nil.
func (p *Policy) Explain(f *File) error {
	switch {
	case f == nil:
		return errs.NewFile(errs.CodeFileMissing, "No file was provided")
	case !f.IsLocal():
		return errs.NewFile(errs.CodeFileNotLocal,
			fmt.Sprintf("Only local files can be played, got a %s source", f.Origin))
	case !f.Regular:
		return errs.NewFile(errs.CodeFileNotRegular,
			fmt.Sprintf("%s is not a regular file", f.Name))
	case f.Size == 0:
		return errs.NewFile(errs.CodeFileEmpty,
			fmt.Sprintf("%s is empty", f.Name))
	case f.Size > p.MaxSize:
		return errs.NewFile(errs.CodeFileTooLarge,
			fmt.Sprintf("%s is %s, the limit is %s", f.Name, humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(p.MaxSize))))
	}

	return nil
}
