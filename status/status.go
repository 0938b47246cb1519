// Package status tracks the outcome of the last profile save of every user.
//
// The state machine is Idle -> Saving -> Success | Error. Success returns to Idle after the
// configured delay; Error is kept until the next save starts.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/menosense/portal/config"
)

type State string

const (
	StateIdle    State = "idle"
	StateSaving  State = "saving"
	StateSuccess State = "success"
	StateError   State = "error"

	MessageSuccess = "Changes saved successfully."
	MessageError   = "Failed to save changes."
)

var ErrSaveInProgress = errors.New("a save is already in progress")

type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

func (s Status) IsSuccess() bool {
	return s.State == StateSuccess
}

type entry struct {
	status     Status
	generation uint64
	timer      *time.Timer
}

type Board struct {
	delay   time.Duration
	entries map[string]*entry
	mu      sync.Mutex
}

func NewBoard(cfg *config.Config) *Board {
	return NewBoardWithDelay(cfg.StatusClearDelay)
}

func NewBoardWithDelay(delay time.Duration) *Board {
	return &Board{
		delay:   delay,
		entries: make(map[string]*entry),
	}
}

func (b *Board) Get(key string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[key]; ok {
		return e.status
	}
	return Status{State: StateIdle}
}

// Begin moves the key to Saving. It fails if a save of the same key hasn't finished yet.
func (b *Board) Begin(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		e = &entry{}
		b.entries[key] = e
	}
	if e.status.State == StateSaving {
		return ErrSaveInProgress
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	e.generation++
	e.status = Status{State: StateSaving}
	return nil
}

func (b *Board) Succeed(key string) {
	b.finish(key, Status{State: StateSuccess, Message: MessageSuccess})
}

func (b *Board) Fail(key string) {
	b.finish(key, Status{State: StateError, Message: MessageError})
}

func (b *Board) finish(key string, status Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok || e.status.State != StateSaving {
		return
	}

	e.status = status
	if status.State == StateSuccess {
		generation := e.generation
		e.timer = time.AfterFunc(b.delay, func() {
			b.clear(key, generation)
		})
	}
}

func (b *Board) clear(key string, generation uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A newer save owns the entry
	if e, ok := b.entries[key]; ok && e.generation == generation && e.status.State == StateSuccess {
		delete(b.entries, key)
	}
}
