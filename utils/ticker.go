package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rjsoccer/planner/logging"
)

// SlowLogger starts a goroutine that warns every few seconds until the returned func is called or
// ctx is done. Used around waits that should be short, like a prior goal loop winding down.
func SlowLogger(ctx context.Context, clk clock.Clock, msg, fieldName string, fieldVal any, logger logging.Logger) func() {
	slowTimer := clk.Timer(2 * time.Second)
	firstTick := true

	ctxWithCancel, cancel := context.WithCancel(ctx)
	startTime := clk.Now()
	go func() {
		for {
			select {
			case <-slowTimer.C:
				elapsed := clk.Since(startTime).Round(time.Second).String()
				logger.CWarnw(ctx, msg, fieldName, fieldVal, "time_elapsed", elapsed)
				if firstTick {
					slowTimer.Reset(3 * time.Second)
					firstTick = false
				} else {
					slowTimer.Reset(5 * time.Second)
				}
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() { slowTimer.Stop(); cancel() }
}
