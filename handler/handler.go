package handler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pyama86/fishstick/domain/repository"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// Handle connects over Socket Mode and serves until the connection ends.
func Handle(ctx context.Context, config *repository.Config) error {
	webApi := slack.New(
		os.Getenv("SLACK_BOT_TOKEN"),
		slack.OptionAppLevelToken(os.Getenv("SLACK_APP_TOKEN")),
	)
	socketMode := socketmode.New(
		webApi,
	)
	authTest, err := webApi.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("SLACK_BOT_TOKEN is invalid: %w", err)
	}
	slog.Info("Bot ID", slog.String("bot_id", authTest.UserID))

	slackRepository := repository.NewSlackRepository(webApi)
	defer slackRepository.Stop()

	incidents := repository.NewIncidentRepository(slackRepository, config.Incident)

	var exporter repository.TimelineExporter
	if config.Confluence.Enabled() {
		r, err := repository.NewConfluenceRepository(
			config.Confluence.Domain,
			os.Getenv("CONFLUENCE_USERNAME"),
			os.Getenv("CONFLUENCE_PASSWORD"),
			config.Confluence.Space,
			config.Confluence.AncestorID,
		)
		if err != nil {
			return err
		}
		exporter = r
	}

	commandHandler := NewCommandHandler(ctx, slackRepository, incidents, exporter, config)
	callbackHandler := NewCallbackHandler(ctx, slackRepository, incidents, config)
	eventHandler := NewEventHandler(ctx, slackRepository, incidents)

	if config.Incident.ReminderInterval > 0 {
		reminder := NewReminder(incidents, slackRepository, config.Incident.ReminderNotification)
		go reminder.Run(ctx, config.Incident.ReminderInterval)
	}

	go func() {
		for envelope := range socketMode.Events {
			switch envelope.Type {
			case socketmode.EventTypeSlashCommand:
				socketMode.Ack(*envelope.Request)
				cmd, ok := envelope.Data.(slack.SlashCommand)
				if !ok {
					slog.Error("Failed to cast to SlashCommand")
					continue
				}
				if err := commandHandler.Handle(&cmd); err != nil {
					slog.Error("Failed to handle command", slog.Any("err", err))
				}
			case socketmode.EventTypeInteractive:
				socketMode.Ack(*envelope.Request)
				callback, ok := envelope.Data.(slack.InteractionCallback)
				if !ok {
					slog.Error("Failed to cast to InteractionCallback")
					continue
				}
				if err := callbackHandler.Handle(&callback); err != nil {
					slog.Error("Failed to handle callback", slog.Any("err", err))
				}
			case socketmode.EventTypeEventsAPI:
				socketMode.Ack(*envelope.Request)
				eventPayload, ok := envelope.Data.(slackevents.EventsAPIEvent)
				if !ok {
					slog.Error("Failed to cast to EventsAPIEvent")
					continue
				}
				if eventPayload.Type == slackevents.CallbackEvent {
					innerEvent := eventPayload.InnerEvent
					if err := eventHandler.Handle(&innerEvent); err != nil {
						slog.Error("Failed to handle event", slog.Any("err", err))
					}
				}
			}
		}
	}()

	return socketMode.RunContext(ctx)
}
