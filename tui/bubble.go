// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/reel-cli/reel/internal/ui"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/session"
	"github.com/reel-cli/reel/util"
	"github.com/samber/mo"
)

// status is a snapshot of the player getters taken outside of Update.
type status struct {
	time, duration float64
	volume, rate   float64
	muted, paused  bool
	ended          bool
}

// statefulBubble encapsulates the application state, the playback session and the component models.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	controller *session.Controller
	file       *media.File

	// sessionChanged and playerChanged coalesce callbacks into a single pending wake up.
	sessionChanged chan struct{}
	playerChanged  chan struct{}

	session session.State
	kind    player.Kind
	failure mo.Option[session.Failure]
	player  player.Player
	status  status

	width, height int

	options *Options
}

// setState performs a synchronous transition of both the application workflow and its associated keymap.
func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// resize propagates terminal dimension changes to all child component models.
func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()

	b.width = width - x
	b.height = height - y
	b.progressC.Width = b.width
	b.helpC.Width = b.width
}

// touch schedules a session snapshot. It never blocks the caller.
func touch(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

func (b *statefulBubble) close() {
	b.controller.Close()
}

// newBubble builds the model and the session controller it drives.
func newBubble(options *Options) *statefulBubble {
	bubble := statefulBubble{
		keymap:         newStatefulKeymap(),
		file:           options.File,
		kind:           options.Kind,
		sessionChanged: make(chan struct{}, 1),
		playerChanged:  make(chan struct{}, 1),
		notifier:       &ui.Model{},
		options:        options,
	}

	sessionOptions := append([]session.Option{
		session.OnChange(func(session.State) { touch(bubble.sessionChanged) }),
		session.OnReady(func(player.Player) { touch(bubble.sessionChanged) }),
		session.OnError(func(session.Failure) { touch(bubble.sessionChanged) }),
	}, options.Session...)
	bubble.controller = session.New(options.Handles, options.Factory, sessionOptions...)

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.setState(loadingState)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
