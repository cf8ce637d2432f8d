package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/domain/timeline"
	"github.com/pyama86/fishstick/presentation/blocks"
	"github.com/slack-go/slack"
)

// Reminder nudges open incidents that nobody has taken command of.
type Reminder struct {
	incidents    *repository.IncidentRepository
	writer       repository.MessageWriter
	notification string
}

func NewReminder(incidents *repository.IncidentRepository, writer repository.MessageWriter, notification string) *Reminder {
	return &Reminder{
		incidents:    incidents,
		writer:       writer,
		notification: notification,
	}
}

// Run ticks until ctx is done.
func (r *Reminder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RemindAll(ctx); err != nil {
				slog.Error("Failed to send commander reminders", slog.Any("err", err))
			}
		}
	}
}

func (r *Reminder) RemindAll(ctx context.Context) error {
	incidents, err := r.incidents.ListIncidents(ctx)
	if err != nil {
		return err
	}
	for _, ic := range incidents {
		if err := r.remind(ctx, ic); err != nil {
			slog.Error("Failed to send commander reminder", slog.String("channel", ic.ChannelID), slog.Any("err", err))
		}
	}
	return nil
}

func (r *Reminder) remind(ctx context.Context, ic repository.IncidentChannel) error {
	incident := ic.Incident
	if incident.IsResolved() || incident.IncidentCommanderID != "" {
		return nil
	}
	elapsed := timeline.FormatDuration(timeline.Duration(incident, timeNow()))
	_, _, err := r.writer.PostMessage(ctx, ic.ChannelID,
		slack.MsgOptionText(fmt.Sprintf("%s has no Incident Commander", incident.Name), false),
		slack.MsgOptionBlocks(blocks.CommanderReminder(elapsed, r.notification)...),
	)
	if err != nil {
		return fmt.Errorf("failed to post reminder %s: %w", incident.Name, err)
	}
	return nil
}
