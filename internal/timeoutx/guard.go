// Package timeoutx bounds the wall-clock duration of remote operations. It
// races an operation against a deadline so a hung network call can never
// pin its caller, and guarantees the timer is released whichever side wins.
package timeoutx

import (
	"context"
	"fmt"
	"time"

	"github.com/taxdesk/taxdocs/internal/common"
)

// WriteCeiling is the ceiling applied to remote write operations.
const WriteCeiling = 4 * time.Minute

// Run executes fn and races its completion against ceiling. When the timer
// fires first the caller receives ErrTimeout naming the operation; fn keeps
// running in the background until it returns on its own, its late result is
// absorbed by the buffered channel, and the session it was using must not
// be reused. When fn wins, the timer is stopped.
func Run(ctx context.Context, operation string, ceiling time.Duration, fn func() error) error {
	start := time.Now()

	// Buffered so the goroutine can always deliver its result and exit,
	// even after the caller has given up.
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(ceiling)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w: %s after %s", common.ErrTimeout, operation, time.Since(start).Round(time.Millisecond))
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", common.ErrTimeout, operation, ctx.Err())
	}
}
