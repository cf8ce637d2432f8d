package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/domain/timeline"
	"github.com/pyama86/fishstick/presentation/blocks"
	"github.com/pyama86/fishstick/presentation/report"
	"github.com/slack-go/slack"
)

// CommandHandler serves the /incident slash command.
type CommandHandler struct {
	ctx       context.Context
	slack     repository.SlackRepositoryer
	incidents *repository.IncidentRepository
	exporter  repository.TimelineExporter
	config    *repository.Config
}

func NewCommandHandler(
	ctx context.Context,
	slackRepository repository.SlackRepositoryer,
	incidents *repository.IncidentRepository,
	exporter repository.TimelineExporter,
	config *repository.Config,
) *CommandHandler {
	return &CommandHandler{
		ctx:       ctx,
		slack:     slackRepository,
		incidents: incidents,
		exporter:  exporter,
		config:    config,
	}
}

func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	sub, rest, _ := strings.Cut(text, " ")
	return strings.ToLower(sub), strings.TrimSpace(rest)
}

func (h *CommandHandler) Handle(cmd *slack.SlashCommand) error {
	sub, rest := splitCommand(cmd.Text)
	slog.Info("slash command", slog.String("sub", sub), slog.String("channel", cmd.ChannelID), slog.String("user", cmd.UserID))

	switch sub {
	case "", "start":
		if err := h.slack.OpenView(h.ctx, cmd.TriggerID, blocks.StartIncidentModal(cmd.ChannelID)); err != nil {
			return fmt.Errorf("failed to open start modal: %w", err)
		}
		return nil
	case "update":
		return h.openUpdateModal(cmd)
	case "ic":
		return h.checkInCommander(cmd)
	case "log":
		return h.logEvent(cmd, rest)
	case "timeline":
		return h.postTimeline(cmd)
	case "resolve":
		return h.resolve(cmd)
	case "export":
		return h.export(cmd)
	case "help":
		return h.ephemeral(cmd, blocks.HelpText)
	default:
		return h.ephemeral(cmd, blocks.UnknownCommand(cmd.Text))
	}
}

func (h *CommandHandler) ephemeral(cmd *slack.SlashCommand, text string) error {
	return h.slack.PostEphemeral(h.ctx, cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false))
}

// requireIncident replies to the user and returns nil when the command ran
// outside an incident channel.
func (h *CommandHandler) requireIncident(cmd *slack.SlashCommand) (*entity.IncidentMetadata, error) {
	incident, err := h.incidents.RequireIncidentChannel(h.ctx, cmd.ChannelID)
	if err != nil {
		if repository.IsNotIncident(err) {
			return nil, h.ephemeral(cmd, blocks.NotIncidentChannelText)
		}
		return nil, err
	}
	return incident, nil
}

// saveFailed tells the user the change was not recorded. A channel without a
// summary message is reported to the user only.
func (h *CommandHandler) saveFailed(cmd *slack.SlashCommand, err error, text string) error {
	if errors.Is(err, errNoSummaryMessage) {
		return h.ephemeral(cmd, blocks.NoSummaryText)
	}
	_ = h.ephemeral(cmd, text)
	return err
}

func (h *CommandHandler) teamChannelID() string {
	if h.config == nil {
		return ""
	}
	return h.config.Incident.TeamUpdateChannelID
}

func (h *CommandHandler) openUpdateModal(cmd *slack.SlashCommand) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	if incident.IsPrivate {
		return h.ephemeral(cmd, blocks.PrivateNoUpdatesText)
	}
	if err := h.slack.OpenView(h.ctx, cmd.TriggerID, blocks.UpdateIncidentModal(cmd.ChannelID)); err != nil {
		return fmt.Errorf("failed to open update modal: %w", err)
	}
	return nil
}

func (h *CommandHandler) checkInCommander(cmd *slack.SlashCommand) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	if incident.IncidentCommanderID == cmd.UserID {
		return h.ephemeral(cmd, blocks.AlreadyCommanderText)
	}

	previous := incident.IncidentCommanderID
	userID, userName := cmd.UserID, cmd.UserName
	updated, err := h.incidents.UpdateIncident(h.ctx, cmd.ChannelID, entity.IncidentUpdate{
		IncidentCommanderID:   &userID,
		IncidentCommanderName: &userName,
	})
	if err != nil {
		_ = h.ephemeral(cmd, blocks.CommanderFailedText)
		return fmt.Errorf("failed to UpdateIncident: %w", err)
	}
	if err := saveSummary(h.ctx, h.slack, cmd.ChannelID, h.teamChannelID(), updated); err != nil {
		return h.saveFailed(cmd, err, blocks.CommanderFailedText)
	}

	text := blocks.IncidentCommanderAssigned(cmd.UserID)
	if previous != "" {
		text = blocks.IncidentCommanderHandoff(previous, cmd.UserID)
	}
	if _, _, err := h.slack.PostMessage(h.ctx, cmd.ChannelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post commander message: %w", err)
	}
	return nil
}

func (h *CommandHandler) logEvent(cmd *slack.SlashCommand, text string) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	if text == "" {
		return h.ephemeral(cmd, blocks.LogUsageText)
	}

	fallback, logBlocks := blocks.LogEvent(cmd.UserID, text, timeNow())
	_, _, err = h.slack.PostMessage(h.ctx, cmd.ChannelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(logBlocks...),
	)
	if err != nil {
		_ = h.ephemeral(cmd, blocks.LogFailedText)
		return fmt.Errorf("failed to post log event: %w", err)
	}
	return nil
}

func (h *CommandHandler) resolve(cmd *slack.SlashCommand) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	if incident.IsResolved() {
		return h.ephemeral(cmd, blocks.AlreadyResolvedText)
	}

	closedAt := timeNow()
	updated, err := h.incidents.UpdateIncident(h.ctx, cmd.ChannelID, entity.IncidentUpdate{
		ClosedAt: &closedAt,
	})
	if err != nil {
		_ = h.ephemeral(cmd, blocks.ResolveFailedText)
		return fmt.Errorf("failed to UpdateIncident: %w", err)
	}
	if err := saveSummary(h.ctx, h.slack, cmd.ChannelID, h.teamChannelID(), updated); err != nil {
		return h.saveFailed(cmd, err, blocks.ResolveFailedText)
	}

	duration := timeline.FormatDuration(timeline.Duration(updated, closedAt))
	_, _, err = h.slack.PostMessage(h.ctx, cmd.ChannelID,
		slack.MsgOptionText(blocks.IncidentResolved(cmd.UserID, duration), false),
	)
	if err != nil {
		return fmt.Errorf("failed to post resolution: %w", err)
	}
	return nil
}

func (h *CommandHandler) reportInput(channelID string) (report.Input, error) {
	incident, tl, err := h.incidents.BuildTimeline(h.ctx, channelID)
	if err != nil {
		return report.Input{}, err
	}
	pinned, err := h.incidents.PinnedMessages(h.ctx, channelID)
	if err != nil {
		return report.Input{}, err
	}
	return report.Input{
		ChannelID: channelID,
		Incident:  incident,
		Timeline:  tl,
		Pinned:    pinned,
	}, nil
}

// postTimeline answers ephemerally so participants are not pinged.
func (h *CommandHandler) postTimeline(cmd *slack.SlashCommand) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	in, err := h.reportInput(cmd.ChannelID)
	if err != nil {
		slog.Error("Error generating timeline", slog.Any("err", err))
		return h.ephemeral(cmd, blocks.TimelineFailedText)
	}
	return h.ephemeral(cmd, report.Slack(in))
}

func (h *CommandHandler) export(cmd *slack.SlashCommand) error {
	incident, err := h.requireIncident(cmd)
	if incident == nil {
		return err
	}
	in, err := h.reportInput(cmd.ChannelID)
	if err != nil {
		slog.Error("Error generating timeline", slog.Any("err", err))
		return h.ephemeral(cmd, blocks.ExportFailedText)
	}

	title := report.Title(in.Incident)
	markdown := report.Markdown(in, h.userNames(in))

	if h.exporter != nil {
		url, err := h.exporter.ExportTimeline(h.ctx, title, markdown)
		if err != nil {
			slog.Error("Failed to export timeline", slog.Any("err", err))
			return h.ephemeral(cmd, blocks.ExportFailedText)
		}
		return h.ephemeral(cmd, blocks.TimelineExported(url))
	}

	if _, err := h.slack.UploadFile(h.ctx, cmd.ChannelID, in.Incident.Name+"-timeline.md", title, markdown); err != nil {
		slog.Error("Failed to upload timeline", slog.Any("err", err))
		return h.ephemeral(cmd, blocks.ExportFailedText)
	}
	return h.ephemeral(cmd, blocks.TimelineUploadedText)
}

// userNames resolves the people a report mentions. Lookup failures leave the
// ID in place.
func (h *CommandHandler) userNames(in report.Input) map[string]string {
	ids := append([]string{}, in.Timeline.Participants...)
	ids = append(ids, in.Incident.StartUserID, in.Incident.IncidentCommanderID)
	for _, ev := range in.Timeline.Events {
		ids = append(ids, ev.User)
	}

	names := map[string]string{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := names[id]; ok {
			continue
		}
		user, err := h.slack.GetUserByID(h.ctx, id)
		if err != nil {
			slog.Warn("GetUserByID", slog.String("user", id), slog.Any("err", err))
			continue
		}
		names[id] = h.slack.GetUserPreferredName(user)
	}
	return names
}
