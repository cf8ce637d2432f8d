package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/presentation/blocks"
	"github.com/slack-go/slack"
)

var timeNow = func() time.Time {
	return time.Now().UTC()
}

// CallbackHandler serves modal submissions.
type CallbackHandler struct {
	ctx       context.Context
	slack     repository.SlackRepositoryer
	incidents *repository.IncidentRepository
	config    *repository.Config
}

func NewCallbackHandler(
	ctx context.Context,
	slackRepository repository.SlackRepositoryer,
	incidents *repository.IncidentRepository,
	config *repository.Config,
) *CallbackHandler {
	return &CallbackHandler{
		ctx:       ctx,
		slack:     slackRepository,
		incidents: incidents,
		config:    config,
	}
}

func (h *CallbackHandler) Handle(callback *slack.InteractionCallback) error {
	if callback.Type != slack.InteractionTypeViewSubmission {
		return nil
	}
	switch callback.View.CallbackID {
	case blocks.StartIncidentCallbackID:
		if err := h.submitStartIncident(callback); err != nil {
			return fmt.Errorf("submitStartIncident failed: %w", err)
		}
	case blocks.UpdateIncidentCallbackID:
		if err := h.submitUpdateIncident(callback); err != nil {
			return fmt.Errorf("submitUpdateIncident failed: %w", err)
		}
	default:
		slog.Warn("unknown view submission", slog.String("callback_id", callback.View.CallbackID))
	}
	return nil
}

func (h *CallbackHandler) teamChannelID() string {
	if h.config == nil {
		return ""
	}
	return h.config.Incident.TeamUpdateChannelID
}

func (h *CallbackHandler) channelPrefix() string {
	if h.config == nil || h.config.Incident.ChannelPrefix == "" {
		return repository.DefaultChannelPrefix
	}
	return h.config.Incident.ChannelPrefix
}

func stateValue(view slack.View, blockID, actionID string) slack.BlockAction {
	if view.State == nil {
		return slack.BlockAction{}
	}
	return view.State.Values[blockID][actionID]
}

func selectedOptions(action slack.BlockAction) map[string]bool {
	selected := map[string]bool{}
	for _, o := range action.SelectedOptions {
		selected[o.Value] = true
	}
	return selected
}

func (h *CallbackHandler) submitStartIncident(callback *slack.InteractionCallback) error {
	issue := strings.TrimSpace(stateValue(callback.View, blocks.IssueBlockID, blocks.IssueActionID).Value)
	if issue == "" {
		issue = blocks.DefaultIssue
	}
	options := selectedOptions(stateValue(callback.View, blocks.IncidentOptionsBlockID, blocks.IncidentOptionsActionID))
	isPrivate := options[blocks.OptionPrivate]
	isTestMode := options[blocks.OptionTestMode]

	userID := callback.User.ID
	userName := callback.User.Name
	if userName == "" {
		userName = "unknown"
	}

	channelName, err := newChannelName(h.ctx, h.slack, h.channelPrefix())
	if err != nil {
		return err
	}
	slog.Info("create_conversation", slog.String("channelName", channelName), slog.Bool("private", isPrivate))
	channel, err := h.slack.CreateConversation(h.ctx, slack.CreateConversationParams{
		ChannelName: channelName,
		IsPrivate:   isPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to CreateConversation: %w", err)
	}
	h.slack.FlushChannelCache()

	incident := &entity.IncidentMetadata{
		Name:          channelName,
		Issue:         issue,
		StartUserID:   userID,
		StartUserName: userName,
		IsPrivate:     isPrivate,
		CreatedAt:     timeNow(),
	}

	if err := h.slack.InviteUsersToConversation(h.ctx, channel.ID, userID); err != nil {
		return fmt.Errorf("failed to InviteUsersToConversation: %w", err)
	}

	_, _, err = h.slack.PostMessage(h.ctx, userID,
		slack.MsgOptionText(blocks.IncidentChannelLink(channel.ID, channelName), false),
	)
	if err != nil {
		slog.Error("Failed to post channel link", slog.Any("err", err))
	}

	_, summaryTS, err := h.slack.PostMessage(h.ctx, channel.ID,
		slack.MsgOptionText(fmt.Sprintf("%s Starting...", channelName), false),
		slack.MsgOptionBlocks(blocks.IncidentSummary(incident, h.teamChannelID())...),
	)
	if err != nil {
		return fmt.Errorf("failed to post summary: %w", err)
	}
	incident.SummaryMessageTS = summaryTS

	if err := h.slack.AddPin(h.ctx, channel.ID, summaryTS); err != nil {
		return fmt.Errorf("failed to pin summary: %w", err)
	}

	if team := h.teamChannelID(); team != "" && !isPrivate && !isTestMode {
		_, teamTS, err := h.slack.PostMessage(h.ctx, team,
			slack.MsgOptionText(blocks.TeamSummaryText(incident), false),
			slack.MsgOptionBlocks(blocks.TeamSummary(incident, channel.ID)...),
		)
		if err != nil {
			slog.Error("Failed to post team announcement", slog.Any("err", err))
		} else {
			incident.TeamMessageTS = teamTS
			if err := saveSummary(h.ctx, h.slack, channel.ID, team, incident); err != nil {
				slog.Error("Failed to link team announcement", slog.Any("err", err))
			}
		}
	}

	_, _, err = h.slack.PostMessage(h.ctx, channel.ID,
		slack.MsgOptionText(blocks.IncidentChannelCreated(userID), false),
	)
	if err != nil {
		return fmt.Errorf("failed to PostMessage: %w", err)
	}
	return nil
}

func (h *CallbackHandler) submitUpdateIncident(callback *slack.InteractionCallback) error {
	channelID := callback.View.PrivateMetadata
	if channelID == "" {
		return fmt.Errorf("no channel in private metadata")
	}
	teamMessageTS, err := h.incidents.TeamMessageTS(h.ctx, channelID)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(stateValue(callback.View, blocks.UpdateBlockID, blocks.UpdateActionID).Value)
	if text == "" {
		return fmt.Errorf("no update value provided")
	}
	options := selectedOptions(stateValue(callback.View, blocks.UpdateOptionsBlockID, blocks.UpdateOptionsActionID))
	postToChannel := options[blocks.OptionPostToChannel]
	userID := callback.User.ID

	teamSent := false
	if team := h.teamChannelID(); team != "" && teamMessageTS != "" {
		opts := []slack.MsgOption{
			slack.MsgOptionText(blocks.TeamIncidentUpdate(userID, text, timeNow()), false),
			slack.MsgOptionTS(teamMessageTS),
		}
		if postToChannel {
			opts = append(opts, slack.MsgOptionBroadcast())
		}
		if _, _, err := h.slack.PostMessage(h.ctx, team, opts...); err != nil {
			return fmt.Errorf("failed to post team update: %w", err)
		}
		teamSent = true
	}

	if postToChannel {
		_, _, err := h.slack.PostMessage(h.ctx, channelID,
			slack.MsgOptionText(blocks.IncidentUpdate(userID, text), false),
		)
		if err != nil {
			return fmt.Errorf("failed to post update: %w", err)
		}
	}

	return h.slack.PostEphemeral(h.ctx, channelID, userID,
		slack.MsgOptionText(blocks.UpdateConfirmation(teamSent, postToChannel), false),
	)
}
