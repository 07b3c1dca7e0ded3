package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Worker runs the select-and-dispatch pipeline on a fixed interval.
//
// Ticks never overlap: if a tick is still running when the next one fires,
// the new one is skipped. Windows of consecutive ticks may overlap (lookahead
// wider than interval); the reminder-log claim keeps the overlap from
// double-sending.
type Worker struct {
	selector   *Selector
	dispatcher *Dispatcher
	interval   time.Duration
	lookahead  time.Duration
	logger     *slog.Logger

	cron *cron.Cron
}

// NewWorker wires a Worker. interval is the tick period, lookahead the due
// window each tick covers.
func NewWorker(selector *Selector, dispatcher *Dispatcher, interval, lookahead time.Duration, logger *slog.Logger) (*Worker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reminder: interval must be positive, got %s", interval)
	}
	if lookahead <= 0 {
		return nil, fmt.Errorf("reminder: lookahead must be positive, got %s", lookahead)
	}
	return &Worker{
		selector:   selector,
		dispatcher: dispatcher,
		interval:   interval,
		lookahead:  lookahead,
		logger:     logger,
	}, nil
}

// Start schedules the tick job and begins running it in the background.
func (w *Worker) Start(ctx context.Context) error {
	cl := cronLogger{logger: w.logger}
	w.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cl),
		cron.Recover(cl),
	))

	_, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		w.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("reminder: scheduling tick job: %w", err)
	}

	w.cron.Start()
	w.logger.Info("reminder worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("lookahead", w.lookahead),
	)
	return nil
}

// Stop halts the schedule and waits for an in-flight tick to finish.
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("reminder worker stopped")
}

// Tick runs one select-and-dispatch pass. Errors are logged, never
// propagated: a failed tick must not stop the schedule.
func (w *Worker) Tick(ctx context.Context) {
	now := time.Now().UTC()

	due, err := w.selector.SelectDue(ctx, now, w.lookahead)
	if err != nil {
		w.logger.Error("reminder tick: selection failed", slog.String("error", err.Error()))
		return
	}
	if len(due) == 0 {
		return
	}

	report := w.dispatcher.Dispatch(ctx, due)
	w.logger.Info("reminder tick complete",
		slog.Int("due", len(due)),
		slog.Int("sent", report.Sent),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failed)),
	)
}

// cronLogger adapts slog to the cron.Logger interface so skip and recover
// events land in the application log.
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err.Error()}, keysAndValues...)
	c.logger.Error("cron: "+msg, args...)
}
