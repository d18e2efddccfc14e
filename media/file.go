// Package media describes local media files and the acceptance policy applied before playback.
package media

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/reel-cli/reel/filesystem"
)

// OriginLocal marks a file that lives on a local filesystem.
const OriginLocal = "local"

// File is a candidate media file as seen by the playback core.
type File struct {
	// Path is the cleaned filesystem path, empty for non-local origins.
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	// Origin is OriginLocal or the URL scheme the file was given with.
	Origin string
	// Regular is false for directories, devices and other non-regular entries.
	Regular bool
}

// Identity is the pair a playback session is keyed on.
type Identity struct {
	Name    string
	ModTime time.Time
}

// String returns a stable encoding suitable as a map key.
func (i Identity) String() string {
	return fmt.Sprintf("%s@%d", i.Name, i.ModTime.UnixNano())
}

// Identity returns the session identity of the file.
func (f *File) Identity() Identity {
	return Identity{Name: f.Name, ModTime: f.ModTime}
}

// Ext returns the lowercased extension without the leading dot.
func (f *File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// IsLocal reports whether the file was given as a local path.
func (f *File) IsLocal() bool {
	return f.Origin == OriginLocal
}

// Stat resolves target into a File. Targets may be plain paths or file:// URLs;
// any other URL is returned with its scheme as origin and is never touched.
func Stat(target string) (*File, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("empty media target")
	}

	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid media target: %w", err)
		}

		if !strings.EqualFold(u.Scheme, "file") {
			return &File{
				Name:   filepath.Base(u.Path),
				Origin: strings.ToLower(u.Scheme),
			}, nil
		}

		target = u.Path
	}

	path, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}

	info, err := filesystem.API().Stat(path)
	if err != nil {
		return nil, err
	}

	return &File{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Origin:  OriginLocal,
		Regular: info.Mode().IsRegular(),
	}, nil
}
