// Package txsim models asynchronous ledger confirmation for the
// PrivateDiploma protocol. There is no real network or consensus: a
// submitted transaction walks a fixed staged state machine on a timer and
// reports each transition through a callback.
//
// Stages: idle -> committing -> proof-generation -> broadcasting ->
// confirmed, with failed as a terminal state reachable from any non-terminal
// stage. No retries; a failure is terminal. Cancellation is not supported:
// once submitted, a transaction runs to a terminal state. Timeouts are a
// maximum poll-attempt counter, not a wall-clock deadline.
package txsim

import (
	"sync"
	"time"

	"privatediploma/internal/credential"
)

// Stage is one state of the confirmation state machine.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageCommitting   Stage = "committing"
	StageProving      Stage = "proof-generation"
	StageBroadcasting Stage = "broadcasting"
	StageConfirmed    Stage = "confirmed"
	StageFailed       Stage = "failed"
)

// stages in traversal order, excluding terminal states.
var stages = []Stage{StageCommitting, StageProving, StageBroadcasting}

// Transition reports one state change of a simulated transaction.
type Transition struct {
	From Stage
	To   Stage
	At   time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelay injects the per-stage delay function. The default uses fixed
// sub-second delays; tests pass a zero delay to run synchronously.
func WithDelay(d func(Stage) time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithSleep injects the sleep function used between stages.
func WithSleep(f func(time.Duration)) Option {
	return func(s *Simulator) { s.sleep = f }
}

// WithMaxPolls sets the poll-attempt budget for Wait.
func WithMaxPolls(n int) Option {
	return func(s *Simulator) { s.maxPolls = n }
}

// WithPollInterval sets the gap between Wait poll attempts.
func WithPollInterval(d time.Duration) Option {
	return func(s *Simulator) { s.pollInterval = d }
}

// WithFailureAt makes every transaction fail on entering the given stage.
// Models broadcast or proving errors; zero value disables injection.
func WithFailureAt(stage Stage) Option {
	return func(s *Simulator) { s.failAt = stage }
}

// Simulator drives simulated transactions. Safe for concurrent use.
type Simulator struct {
	delay        func(Stage) time.Duration
	sleep        func(time.Duration)
	maxPolls     int
	pollInterval time.Duration
	failAt       Stage
}

func defaultDelay(stage Stage) time.Duration {
	switch stage {
	case StageCommitting:
		return 150 * time.Millisecond
	case StageProving:
		return 400 * time.Millisecond
	case StageBroadcasting:
		return 250 * time.Millisecond
	default:
		return 0
	}
}

// New creates a simulator with the given options.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		delay:        defaultDelay,
		sleep:        time.Sleep,
		maxPolls:     50,
		pollInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tx is a handle on one simulated transaction.
type Tx struct {
	mu    sync.Mutex
	stage Stage
	err   error
	done  chan struct{}
}

// Stage returns the current stage.
func (t *Tx) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Err returns the terminal error, nil until the transaction fails.
func (t *Tx) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed when the transaction reaches a terminal stage.
func (t *Tx) Done() <-chan struct{} {
	return t.done
}

func (t *Tx) set(stage Stage, err error) {
	t.mu.Lock()
	t.stage = stage
	t.err = err
	t.mu.Unlock()
}

// Run walks the state machine synchronously, invoking onTransition for every
// state change. Returns ErrTransactionFailed if a failure stage is reached.
// onTransition may be nil.
func (s *Simulator) Run(onTransition func(Transition)) error {
	t := &Tx{stage: StageIdle, done: make(chan struct{})}
	defer close(t.done)
	return s.run(t, onTransition)
}

func (s *Simulator) run(t *Tx, onTransition func(Transition)) error {
	notify := func(from, to Stage) {
		if onTransition != nil {
			onTransition(Transition{From: from, To: to, At: time.Now()})
		}
	}
	prev := StageIdle
	for _, stage := range stages {
		if s.failAt != "" && s.failAt == stage {
			t.set(StageFailed, credential.ErrTransactionFailed)
			notify(prev, StageFailed)
			return credential.ErrTransactionFailed
		}
		t.set(stage, nil)
		notify(prev, stage)
		s.sleep(s.delay(stage))
		prev = stage
	}
	t.set(StageConfirmed, nil)
	notify(prev, StageConfirmed)
	return nil
}

// Submit starts a transaction asynchronously and returns its handle.
func (s *Simulator) Submit(onTransition func(Transition)) *Tx {
	t := &Tx{stage: StageIdle, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		s.run(t, onTransition)
	}()
	return t
}

// Wait polls the transaction until it reaches a terminal stage, up to the
// configured poll-attempt budget. Returns nil on confirmation,
// ErrTransactionFailed on failure, and ErrTransactionTimeout when the budget
// is exhausted.
func (s *Simulator) Wait(t *Tx) error {
	for i := 0; i < s.maxPolls; i++ {
		select {
		case <-t.done:
			return t.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return credential.ErrTransactionTimeout
}
