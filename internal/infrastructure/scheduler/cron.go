// Package scheduler runs the recurring ingestion job on a daily cron
// expression evaluated in Hong Kong time.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/ports"
)

// DailyScheduler fires once per day at the minute and hour taken from a
// cron expression of the form "M H * * *". Only the daily subset is
// supported; the remaining fields must be wildcards.
type DailyScheduler struct {
	minute int
	hour   int
	stop   chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses the cron expression eagerly so a bad
// configuration fails at startup, not at the first tick.
func NewDailyScheduler(cronExpr string) (*DailyScheduler, error) {
	minute, hour, err := parseDailyCron(cronExpr)
	if err != nil {
		return nil, err
	}
	return &DailyScheduler{minute: minute, hour: hour}, nil
}

func parseDailyCron(expr string) (minute, hour int, err error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return 0, 0, fmt.Errorf("cron expression %q: want 5 fields", expr)
	}
	for _, f := range fields[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("cron expression %q: only daily schedules are supported", expr)
		}
	}
	minute, err = strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("cron expression %q: bad minute field", expr)
	}
	hour, err = strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("cron expression %q: bad hour field", expr)
	}
	return minute, hour, nil
}

// next returns the first trigger time after now, in Hong Kong time.
func (d *DailyScheduler) next(now time.Time) time.Time {
	now = now.In(dateutil.HKLocation())
	run := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, now.Location())
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// Start launches the timer goroutine. Calling Start twice is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			timer := time.NewTimer(time.Until(d.next(time.Now())))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}
