package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/presentation/blocks"
	"github.com/slack-go/slack"
)

var errNoSummaryMessage = errors.New("incident has no pinned summary message")

// saveSummary re-encodes incident over its pinned summary message. It is a
// plain overwrite: a concurrent change between read and write is lost.
func saveSummary(ctx context.Context, writer repository.MessageWriter, channelID, teamChannelID string, incident *entity.IncidentMetadata) error {
	if incident.SummaryMessageTS == "" {
		slog.Warn("incident has no summary message", slog.String("channel", channelID))
		return errNoSummaryMessage
	}
	err := writer.UpdateMessage(ctx, channelID, incident.SummaryMessageTS,
		slack.MsgOptionText(blocks.IncidentSummaryText(incident), false),
		slack.MsgOptionBlocks(blocks.IncidentSummary(incident, teamChannelID)...),
	)
	if err != nil {
		return fmt.Errorf("failed to update summary message: %w", err)
	}
	return nil
}
