package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/presentation/blocks"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

type EventHandler struct {
	ctx       context.Context
	slack     repository.SlackRepositoryer
	incidents *repository.IncidentRepository
}

func NewEventHandler(ctx context.Context, slackRepository repository.SlackRepositoryer, incidents *repository.IncidentRepository) *EventHandler {
	return &EventHandler{
		ctx:       ctx,
		slack:     slackRepository,
		incidents: incidents,
	}
}

func (h *EventHandler) Handle(event *slackevents.EventsAPIInnerEvent) error {
	switch ev := event.Data.(type) {
	case *slackevents.AppMentionEvent:
		slog.Info("AppMentionEvent", "user", ev.User, "channel", ev.Channel)
		return h.handleMentionEvent(ev)
	case *slackevents.ChannelCreatedEvent:
		// keeps name collision checks and incident listing current
		h.slack.FlushChannelCache()
	}
	return nil
}

func (h *EventHandler) handleMentionEvent(event *slackevents.AppMentionEvent) error {
	text := blocks.MentionOutsideIncidentText
	if h.incidents.FindIncidentByChannel(h.ctx, event.Channel) != nil {
		text = blocks.MentionInIncidentText
	}

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if event.ThreadTimeStamp != "" {
		opts = append(opts, slack.MsgOptionTS(event.ThreadTimeStamp))
	}
	if err := h.slack.PostEphemeral(h.ctx, event.Channel, event.User, opts...); err != nil {
		return fmt.Errorf("failed to PostEphemeral: %w", err)
	}
	return nil
}
