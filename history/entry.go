package history

import (
	"fmt"
	"time"

	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
)

// Entry records the backend that last reached Ready for a file.
type Entry struct {
	Name     string    `json:"name"`
	Backend  string    `json:"backend"`
	PlayedAt time.Time `json:"played_at"`
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s : %s", e.Name, e.Backend)
}

func newEntry(file *media.File, kind player.Kind) *Entry {
	return &Entry{
		Name:     file.Name,
		Backend:  kind.String(),
		PlayedAt: time.Now(),
	}
}
