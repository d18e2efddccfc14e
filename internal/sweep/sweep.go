// Package sweep removes engine endpoints left behind by runs that did not exit cleanly.
package sweep

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/log"
	"github.com/spf13/afero"
)

// Grace is the minimum age of a socket file before it is considered for removal.
const Grace = 10 * time.Minute

// Dialer reports whether something still answers on a unix socket.
type Dialer func(path string) bool

func dial(path string) bool {
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Sockets removes socket files in dir that are older than Grace and that nothing listens on.
// It returns the number of removed files.
func Sockets(dir string, alive Dialer) int {
	if alive == nil {
		alive = dial
	}

	fs := filesystem.API()
	var removed int

	_ = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".sock") {
			return nil
		}

		if time.Since(info.ModTime()) < Grace || alive(path) {
			return nil
		}

		if err := fs.Remove(path); err != nil {
			log.Warnf("sweep: %v", err)
			return nil
		}

		log.Debugf("sweep: removed stale socket %s", path)
		removed++
		return nil
	})

	return removed
}

// CollectGarbage sweeps dir in the background.
func CollectGarbage(dir string) {
	go Sockets(dir, nil)
}
