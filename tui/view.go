// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wrap"
	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/util"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case failedState:
		output = b.viewFailed()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	status := fmt.Sprintf("Starting %s", b.kind.Display())
	if retries := b.session.RetryCount; retries > 0 {
		status += style.Faint(fmt.Sprintf(" (retry %d of %d)", retries, b.controller.MaxRetries()))
	}

	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			style.Truncate(b.width)(style.Fg(color.Purple)(b.file.Name)),
			"",
			b.spinnerC.View() + " " + status,
		},
	)
}

func (b *statefulBubble) viewPlaying() string {
	s := b.status

	var percent float64
	if s.duration > 0 {
		percent = s.time / s.duration
	}

	state := icon.Get(icon.Play) + " playing"
	switch {
	case s.ended:
		state = icon.Get(icon.Success) + " ended"
	case s.paused:
		state = icon.Get(icon.Pause) + " paused"
	}

	volume := fmt.Sprintf("vol %d%%", int(s.volume*100+0.5))
	if s.muted {
		volume = icon.Get(icon.Mute) + " muted"
	}

	return b.renderLines(
		true,
		[]string{
			style.Title("Now Playing") + " " + style.Tag(style.Base, style.Lavender)(b.kind.Display()),
			"",
			style.Truncate(b.width)(style.Fg(color.Purple)(b.file.Name)),
			style.Faint(humanize.Bytes(uint64(max(b.file.Size, 0)))),
			"",
			b.progressC.ViewAs(percent),
			fmt.Sprintf("%s / %s", util.Clock(s.time), util.Clock(s.duration)),
			"",
			strings.Join([]string{state, volume, fmt.Sprintf("%gx", s.rate)}, style.Faint("  •  ")),
		},
	)
}

func (b *statefulBubble) viewFailed() string {
	failure, ok := b.failure.Get()
	if !ok || failure.Err == nil {
		return b.renderLines(true, []string{style.ErrorTitle("Error")})
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	lines := []string{
		style.ErrorTitle("Playback failed"),
		"",
		icon.Get(icon.Fail) + " " + b.kind.Display() + " could not play " + style.Fg(color.Purple)(b.file.Name),
		"",
		wrap.String(errorStyle.Render(failure.Err.Message), b.width),
	}

	if len(failure.Suggestions) > 0 {
		lines = append(lines, "")
		for _, suggestion := range failure.Suggestions {
			lines = append(lines, wrap.String("• "+suggestion, b.width))
		}
	}

	lines = append(lines, "")
	if failure.CanRetry {
		lines = append(lines, icon.Get(icon.Retry)+" press r to retry")
	}
	if failure.CanFallback {
		lines = append(lines, icon.Get(icon.Fallback)+" press f to try "+b.kind.Other().Display())
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
