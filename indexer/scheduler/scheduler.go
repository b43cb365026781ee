// Package scheduler provides the periodic drivers behind the indexer's
// long-running services: a fixed-interval runner for the liquidation
// scan passes and a daily UTC wall-clock runner for the ETH dataset
// builder.
package scheduler

import (
	"context"
	"reflect"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "scheduler")

// RunEvery runs the provided command periodically.
// It runs in a goroutine, and can be cancelled by finishing the supplied context.
func RunEvery(ctx context.Context, period time.Duration, f func()) {
	funcName := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
	ticker := time.NewTicker(period)
	go func() {
		for {
			select {
			case <-ticker.C:
				log.WithField("function", funcName).Trace("running")
				f()
			case <-ctx.Done():
				log.WithField("function", funcName).Debug("context is closed, exiting")
				ticker.Stop()
				return
			}
		}
	}()
}

// RunDaily runs f once per day at the given UTC wall-clock time. A run
// that returns an error is retried every retryAfter until it succeeds,
// then scheduling resumes at the next daily slot. Runs in a goroutine,
// cancelled by finishing the supplied context.
func RunDaily(ctx context.Context, hour, minute int, retryAfter time.Duration, f func() error) {
	funcName := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
	go func() {
		for {
			next := NextDailyRun(time.Now().UTC(), hour, minute)
			wait := time.Until(next)
			log.WithField("function", funcName).Infof("Next daily run at %s (in %.1fh)",
				next.Format("2006-01-02 15:04:05 UTC"), wait.Hours())
			select {
			case <-ctx.Done():
				log.WithField("function", funcName).Debug("context is closed, exiting")
				return
			case <-time.After(wait):
			}
			for {
				err := f()
				if err == nil {
					break
				}
				log.WithError(err).WithField("function", funcName).Warnf("Daily run failed, retrying in %s", retryAfter)
				select {
				case <-ctx.Done():
					log.WithField("function", funcName).Debug("context is closed, exiting")
					return
				case <-time.After(retryAfter):
				}
			}
		}
	}()
}

// NextDailyRun returns the next instant at the given UTC wall-clock time
// strictly after now.
func NextDailyRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
