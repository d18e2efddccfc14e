// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/session"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	File    *media.File
	Kind    player.Kind
	Handles session.Handles
	Factory session.Factory

	// Session options appended after the interface's own callbacks.
	Session []session.Option
}

// Run plays options.File until the user quits or ctx ends. The session is closed on return.
func Run(ctx context.Context, options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
