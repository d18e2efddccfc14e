package vlc

import (
	"bytes"
	"strings"
	"sync"

	"github.com/reel-cli/reel/log"
)

// patterns map fragments of VLC log lines to error codes. Earlier entries win.
var patterns = []struct {
	code      int
	fragments []string
}{
	{CodeUnsupported, []string{
		"no suitable demux module",
		"no suitable decoder module",
		"unsupported",
		"unknown format",
		"not supported",
	}},
	{CodeNetwork, []string{
		"connection refused",
		"connection failed",
		"cannot connect",
		"network is unreachable",
		"http error",
		"timed out",
	}},
	{CodeDecode, []string{
		"decoder error",
		"decoding error",
		"cannot decode",
		"could not decode",
		"corrupt",
	}},
	{CodeAborted, []string{
		"aborted",
		"interrupted",
	}},
}

// classify returns the code of the first pattern that matches line.
func classify(line string) int {
	l := strings.ToLower(line)
	for _, p := range patterns {
		for _, f := range p.fragments {
			if strings.Contains(l, f) {
				return p.code
			}
		}
	}
	return CodeNone
}

// classifier is an io.Writer that consumes VLC's stderr and remembers the first classified error line.
type classifier struct {
	mu      sync.Mutex
	pending []byte
	code    int
	line    string
}

func (c *classifier) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, p...)

	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			break
		}

		line := strings.TrimSpace(string(c.pending[:i]))
		c.pending = c.pending[i+1:]

		if line == "" {
			continue
		}
		log.Tracef("vlc: %s", line)

		if !strings.Contains(line, " error: ") || c.code != CodeNone {
			continue
		}

		// unclassified lines are kept until the first classified one
		c.line = line
		c.code = classify(line)
	}

	return len(p), nil
}

func (c *classifier) result() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code, c.line
}
