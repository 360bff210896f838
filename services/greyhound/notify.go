package greyhoundd

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"greyhound-backend/lib/schedule"
	"greyhound-backend/lib/timezone"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

type NotifyOptions struct {
	Smtp       SmtpConfig
	Recipients []string
	// local hour at which reminders go out, defaults to 18
	Hour int
}

const defaultReminderHour = 18

func (s *Service) sendReminder(ctx context.Context, id string, summary *schedule.CollectionSummary) error {
	ctx, span := tracer.Start(ctx, "sendReminder")
	defer span.End()

	notify := s.options.Notify
	bins := schedule.SortBinsForDisplay(strings.Split(summary.BinTypes, ", "))

	var lines []string
	for _, bin := range bins {
		lines = append(lines, fmt.Sprintf("  - %s (%s)", bin, schedule.Describe(bin)))
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Bin Reminders <%s>", notify.Smtp.EmailAddress)
	mail.To = notify.Recipients
	mail.Subject = fmt.Sprintf("Bin collection tomorrow: %s", strings.Join(bins, ", "))

	body := fmt.Sprintf(`Collection for account %q is tomorrow, %s.

Put out:
%s

This reminder was generated from the provider's collection calendar.`,
		id,
		summary.NextCollectionDate.Format("Monday 2 January"),
		strings.Join(lines, "\n"),
	)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", notify.Smtp.Server, notify.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", notify.Smtp.EmailAddress, notify.Smtp.Password, notify.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send reminder email")
		return err
	}

	return nil
}

// remindDue sends at most one reminder per account per collection
// date, for collections happening tomorrow.
func (s *Service) remindDue(ctx context.Context) {
	type due struct {
		id      string
		summary *schedule.CollectionSummary
	}

	var pending []due
	s.mu.Lock()
	for id, snapshot := range s.snapshots {
		summary := snapshot.Result.Summary
		if summary == nil || summary.DaysUntilCollection != 1 {
			continue
		}
		date := summary.NextCollectionDate.Format("2006-01-02")
		if s.reminded[id] == date {
			continue
		}
		s.reminded[id] = date
		pending = append(pending, due{id: id, summary: summary})
	}
	s.mu.Unlock()

	for _, d := range pending {
		err := s.sendReminder(ctx, d.id, d.summary)
		if err != nil {
			slog.WarnContext(ctx, "failed to send reminder", "id", d.id, "err", err)
		}
	}
}

func (s *Service) reminderDaemon(ctx context.Context) {
	hour := s.options.Notify.Hour
	if hour == 0 {
		hour = defaultReminderHour
	}

	slog.InfoContext(
		ctx, "start daemon",
		"task", "send collection reminders",
		"hour", hour,
	)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if timezone.Now().Hour() != hour {
				continue
			}
			s.remindDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}
