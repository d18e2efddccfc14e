package session

import (
	"time"

	"github.com/reel-cli/reel/errs"
)

// Phase is the lifecycle phase of a playback session.
type Phase int

const (
	// Initializing means a player is being constructed or a retry is scheduled.
	Initializing Phase = iota
	// Ready means a player is constructed and playing.
	Ready
	// Failed means construction gave up. Only Retry or a new session leave it.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "Initializing"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is a snapshot of a session.
type State struct {
	Phase      Phase
	RetryCount int
	LastError  *errs.Error
}

// Failure is what the caller receives when a session enters Failed.
type Failure struct {
	Err         *errs.Error
	CanRetry    bool
	CanFallback bool
	Suggestions []string
}

// Clock schedules retries. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
