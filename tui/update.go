// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/reel-cli/reel/internal/ui"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/session"
	"github.com/reel-cli/reel/util"
	"github.com/samber/lo"
)

const (
	seekStep   = 5.0
	volumeStep = 0.05
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmds = append(cmds, uiCmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		cmds = append(cmds, cmd)
	case sessionMsg:
		cmds = append(cmds, b.applySession(msg), b.waitForSession())
	case playerChangedMsg:
		cmds = append(cmds, refresh(b.player), b.waitForPlayer())
	case statusMsg:
		// late reads from a replaced player are dropped
		if msg.player == b.player {
			b.status = msg.status
		}
	case playerErrorMsg:
		cmds = append(cmds, ui.Notify(msg.err.Error()))
	case tea.KeyMsg:
		cmds = append(cmds, b.handleKey(msg))
	}

	return b, tea.Batch(cmds...)
}

func (b *statefulBubble) applySession(msg sessionMsg) tea.Cmd {
	b.session = msg.state
	b.failure = msg.failure
	if kind, ok := msg.kind.Get(); ok {
		b.kind = kind
	}

	switch msg.state.Phase {
	case session.Initializing:
		b.player = nil
		b.status = status{}
		b.setState(loadingState)
	case session.Failed:
		b.player = nil
		b.setState(failedState)
	case session.Ready:
		b.setState(playingState)
		if p, ok := msg.player.Get(); ok && p != b.player {
			return b.attach(p)
		}
	}

	return nil
}

func (b *statefulBubble) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keymap.forceQuit), key.Matches(msg, b.keymap.quit):
		return tea.Quit
	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
		return nil
	}

	switch b.state {
	case failedState:
		failure, ok := b.failure.Get()
		switch {
		case key.Matches(msg, b.keymap.retry):
			if !ok || !failure.CanRetry {
				return ui.Notify("retry is not available")
			}
			b.setState(loadingState)
			return b.retry()
		case key.Matches(msg, b.keymap.fallback):
			if !ok || !failure.CanFallback {
				return ui.Notify("no other backend to try")
			}
			b.setState(loadingState)
			return b.fallback()
		}
	case playingState:
		return b.handlePlayingKey(msg)
	}

	return nil
}

func (b *statefulBubble) handlePlayingKey(msg tea.KeyMsg) tea.Cmd {
	volume, rate := b.status.volume, b.status.rate

	switch {
	case key.Matches(msg, b.keymap.playPause):
		return b.control(player.Player.TogglePlayPause)
	case key.Matches(msg, b.keymap.mute):
		return b.control(player.Player.ToggleMute)
	case key.Matches(msg, b.keymap.seekBack):
		return b.control(func(p player.Player) error { return p.Seek(-seekStep) })
	case key.Matches(msg, b.keymap.seekForward):
		return b.control(func(p player.Player) error { return p.Seek(seekStep) })
	case key.Matches(msg, b.keymap.volumeUp):
		return b.control(func(p player.Player) error { return p.SetVolume(util.Clamp(volume+volumeStep, 0, 1)) })
	case key.Matches(msg, b.keymap.volumeDown):
		return b.control(func(p player.Player) error { return p.SetVolume(util.Clamp(volume-volumeStep, 0, 1)) })
	case key.Matches(msg, b.keymap.slower):
		return b.control(func(p player.Player) error { return p.SetRate(stepRate(p.Speeds(), rate, -1)) })
	case key.Matches(msg, b.keymap.faster):
		return b.control(func(p player.Player) error { return p.SetRate(stepRate(p.Speeds(), rate, 1)) })
	}

	return nil
}

// stepRate returns the neighbour of rate in the ascending speeds list, or rate itself at either end.
func stepRate(speeds []float64, rate float64, direction int) float64 {
	const epsilon = 1e-9

	if direction > 0 {
		next, ok := lo.Find(speeds, func(s float64) bool { return s > rate+epsilon })
		if ok {
			return next
		}
		return rate
	}

	for i := len(speeds) - 1; i >= 0; i-- {
		if speeds[i] < rate-epsilon {
			return speeds[i]
		}
	}
	return rate
}
