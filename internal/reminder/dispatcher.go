package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/notify"
	"github.com/sakif/habit-tracker/internal/repository"
)

// sendTimeout bounds one outbound send so a hung transport can't stall the
// whole tick. A timeout is recorded as an ordinary dispatch failure.
const sendTimeout = 5 * time.Second

// SendFailure records one habit whose notification could not be delivered.
type SendFailure struct {
	Habit model.Habit
	Err   error
}

// DispatchReport summarizes one dispatch batch. Failed sends are retried
// naturally: the habit stays due for the rest of its window, so the next tick
// re-selects it.
type DispatchReport struct {
	Sent    int
	Skipped int // already claimed by an earlier (or concurrent) tick
	Failed  []SendFailure
}

// Dispatcher formats and sends reminder messages.
//
// Delivery is effectively-once per (habit, occurrence date): before each send
// the per-day marker is claimed atomically in the reminder log; a habit whose
// marker is already held is skipped, and a failed send releases the marker so
// the next tick retries. Without the marker this would be plain
// at-least-once — overlapping ticks inside one window would all send.
type Dispatcher struct {
	sender    notify.Sender
	log       repository.ReminderLogRepository
	displayTZ *time.Location
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. displayTZ is only used to render the
// time inside the message text; all scheduling stays in UTC.
func NewDispatcher(sender notify.Sender, log repository.ReminderLogRepository, displayTZ *time.Location, logger *slog.Logger) *Dispatcher {
	if displayTZ == nil {
		displayTZ = time.UTC
	}
	return &Dispatcher{
		sender:    sender,
		log:       log,
		displayTZ: displayTZ,
		logger:    logger,
	}
}

// Dispatch processes every due habit independently. One habit's failure —
// unreachable chat, rate limit, even a panic — is caught, counted, and never
// stops the rest of the batch. Dispatch itself never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, due []DueHabit) DispatchReport {
	var report DispatchReport

	for _, item := range due {
		switch err := d.sendOne(ctx, item); {
		case err == nil:
			report.Sent++
		case err == errAlreadyClaimed:
			report.Skipped++
		default:
			d.logger.Error("reminder dispatch failed",
				slog.String("habitID", item.Habit.ID),
				slog.Int64("chatID", item.ChatID),
				slog.String("error", err.Error()),
			)
			report.Failed = append(report.Failed, SendFailure{Habit: item.Habit, Err: err})
		}
	}

	return report
}

// errAlreadyClaimed is internal to the dispatch loop: another tick already
// holds this occurrence's marker, which is a skip, not a failure.
var errAlreadyClaimed = fmt.Errorf("reminder already claimed")

// sendOne claims the notified marker and performs a single send. Panics from
// message formatting or the transport are recovered into ordinary errors so
// one bad habit record can't take down the scheduler.
func (d *Dispatcher) sendOne(ctx context.Context, item DueHabit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder: panic while dispatching habit %s: %v", item.Habit.ID, r)
		}
	}()

	date := model.DateOf(item.OccursAt)

	claimed, err := d.log.Claim(ctx, item.Habit.ID, date, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reminder: claiming marker: %w", err)
	}
	if !claimed {
		return errAlreadyClaimed
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, item.ChatID, d.formatMessage(item), true); err != nil {
		// Give the occurrence back: the habit stays due for the rest of its
		// window and the next tick will re-claim and retry.
		if relErr := d.log.Release(ctx, item.Habit.ID, date); relErr != nil {
			d.logger.Error("failed to release reminder claim",
				slog.String("habitID", item.Habit.ID),
				slog.String("error", relErr.Error()),
			)
		}
		return err
	}

	d.logger.Info("reminder sent",
		slog.String("habitID", item.Habit.ID),
		slog.Int64("chatID", item.ChatID),
		slog.String("date", date),
	)
	return nil
}

// formatMessage renders the reminder text: place, local display time, action,
// duration.
func (d *Dispatcher) formatMessage(item DueHabit) string {
	local := item.OccursAt.In(d.displayTZ)

	return fmt.Sprintf(
		"⏰ *Habit reminder!*\n\n"+
			"📍 *Place:* %s\n"+
			"🕐 *Time:* %s\n"+
			"📌 *Action:* %s\n"+
			"⏱ *Duration:* %d sec.\n\n"+
			"✅ Mark it complete in the app!",
		item.Habit.Place,
		local.Format("15:04 (MST)"),
		item.Habit.Action,
		item.Habit.DurationSeconds,
	)
}
