// Package poll implements a bounded fixed-interval readiness check,
// used while waiting for external media processing to finish.
package poll

import (
	"context"
	"time"
)

type State int

const (
	// Pending keeps the poll running.
	Pending State = iota
	// Done ends the poll successfully.
	Done
	// Failed ends the poll with the error returned by the check.
	Failed
)

type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// ErrExhausted is returned by Run when every attempt stayed Pending.
type exhaustedError struct{}

func (exhaustedError) Error() string { return "poll: attempt budget exhausted" }

var ErrExhausted error = exhaustedError{}

// Run waits Interval before each attempt and calls check until it
// reports Done, Failed, the context ends, or MaxAttempts is spent.
func (p Policy) Run(ctx context.Context, check func(ctx context.Context) (State, error)) error {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		state, err := check(ctx)
		switch state {
		case Done:
			return nil
		case Failed:
			return err
		}

		timer.Reset(p.Interval)
	}

	return ErrExhausted
}
