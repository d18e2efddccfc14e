// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reel-cli/reel/history"
	"github.com/reel-cli/reel/internal/ui"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/session"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// sessionMsg is a snapshot of the controller taken after one or more callbacks.
type sessionMsg struct {
	state   session.State
	kind    mo.Option[player.Kind]
	failure mo.Option[session.Failure]
	player  mo.Option[player.Player]
}

// statusMsg carries fresh getter values of the player they were read from.
type statusMsg struct {
	player player.Player
	status status
}

type playerChangedMsg struct{}

type playerErrorMsg struct {
	err error
}

func (b *statefulBubble) load() tea.Cmd {
	return func() tea.Msg {
		log.Infof("loading %s with %s", b.file.Name, b.options.Kind)
		b.controller.Load(b.file, b.options.Kind)
		return nil
	}
}

func (b *statefulBubble) snapshot() sessionMsg {
	return sessionMsg{
		state:   b.controller.State(),
		kind:    b.controller.Kind(),
		failure: b.controller.Failure(),
		player:  b.controller.Player(),
	}
}

func (b *statefulBubble) waitForSession() tea.Cmd {
	return func() tea.Msg {
		<-b.sessionChanged
		return b.snapshot()
	}
}

func (b *statefulBubble) waitForPlayer() tea.Cmd {
	return func() tea.Msg {
		<-b.playerChanged
		return playerChangedMsg{}
	}
}

// refresh reads the player getters. It runs outside of Update since engines answer over IPC.
func refresh(p player.Player) tea.Cmd {
	if p == nil {
		return nil
	}

	return func() tea.Msg {
		return statusMsg{
			player: p,
			status: status{
				time:     p.CurrentTime(),
				duration: p.Duration(),
				volume:   p.Volume(),
				rate:     p.Rate(),
				muted:    p.Muted(),
				paused:   p.Paused(),
				ended:    p.Ended(),
			},
		}
	}
}

// attach subscribes to the events of a newly ready player.
func (b *statefulBubble) attach(p player.Player) tea.Cmd {
	b.player = p
	changed := b.playerChanged

	for _, event := range []player.Event{
		player.EventPlay,
		player.EventPause,
		player.EventEnded,
		player.EventTimeUpdate,
		player.EventVolumeChange,
	} {
		p.On(event, func(any) { touch(changed) })
	}

	// the controller fails the session on engine errors; the view follows its snapshot
	p.On(player.EventError, func(data any) {
		log.Warnf("%s reported an error: %v", p.Kind(), data)
		touch(changed)
	})

	if viper.GetBool(key.HistoryRememberBackend) {
		if err := history.Remember(b.file, p.Kind()); err != nil {
			log.Warn(err)
		}
	}

	return refresh(p)
}

// control runs fn against the current player and refreshes the status afterwards.
func (b *statefulBubble) control(fn func(p player.Player) error) tea.Cmd {
	p := b.player
	if p == nil {
		return nil
	}

	return func() tea.Msg {
		if err := fn(p); err != nil {
			return playerErrorMsg{err: err}
		}
		return refresh(p)()
	}
}

func (b *statefulBubble) retry() tea.Cmd {
	return func() tea.Msg {
		if err := b.controller.Retry(); err != nil {
			return playerErrorMsg{err: err}
		}
		return nil
	}
}

func (b *statefulBubble) fallback() tea.Cmd {
	return func() tea.Msg {
		kind, err := b.controller.RequestFallback()
		if err != nil {
			return playerErrorMsg{err: err}
		}
		return ui.NotificationMsg(fmt.Sprintf("switched to %s", kind.Display()))
	}
}
