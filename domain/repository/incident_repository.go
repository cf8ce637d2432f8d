package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/parser"
	"github.com/pyama86/fishstick/domain/timeline"
	"github.com/slack-go/slack"
)

// IncidentRepository rebuilds incidents from channel facts and the pinned
// summary message. It never writes.
type IncidentRepository struct {
	reader       ChannelReader
	prefix       string
	historyLimit int
	now          func() time.Time
}

func NewIncidentRepository(reader ChannelReader, cfg IncidentConfig) *IncidentRepository {
	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 1000
	}
	return &IncidentRepository{
		reader:       reader,
		prefix:       prefix,
		historyLimit: limit,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for unresolved durations.
func (r *IncidentRepository) WithClock(now func() time.Time) *IncidentRepository {
	r.now = now
	return r
}

func (r *IncidentRepository) IsIncidentChannelName(name string) bool {
	return strings.HasPrefix(name, r.prefix)
}

// FindIncidentByChannel returns nil for channels that are not incidents and
// whenever any lookup fails.
func (r *IncidentRepository) FindIncidentByChannel(ctx context.Context, channelID string) *entity.IncidentMetadata {
	incident, err := r.reconstruct(ctx, channelID)
	if err != nil {
		slog.Error("failed to reconstruct incident", slog.String("channel", channelID), slog.Any("err", err))
		return nil
	}
	return incident
}

func (r *IncidentRepository) reconstruct(ctx context.Context, channelID string) (*entity.IncidentMetadata, error) {
	channel, err := r.reader.GetChannelInfo(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel info: %w", err)
	}
	if channel == nil || !r.IsIncidentChannelName(channel.Name) {
		return nil, nil
	}

	summary, err := r.findSummary(ctx, channelID)
	if err != nil {
		return nil, err
	}

	incident := &entity.IncidentMetadata{
		Name:      channel.Name,
		IsPrivate: channel.IsPrivate,
		CreatedAt: channel.Created.Time().UTC(),
	}
	if summary != nil {
		data := parser.DecodeSummary(summary)
		incident.Issue = data.Issue
		incident.StartUserID = data.StartUserID
		incident.IncidentCommanderID = data.IncidentCommanderID
		incident.TeamMessageTS = data.TeamMessageTS
		incident.ClosedAt = data.ClosedAt
		incident.SummaryMessageTS = summary.Timestamp
	}
	return incident, nil
}

// findSummary walks the pins in listed order and stops at the first one whose
// message passes the header check.
func (r *IncidentRepository) findSummary(ctx context.Context, channelID string) (*slack.Message, error) {
	pins, err := r.reader.ListPins(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	for _, pin := range pins {
		ts := pinTimestamp(pin)
		if ts == "" {
			continue
		}
		msg, err := r.reader.GetHistoryAt(ctx, channelID, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to get pinned message %s: %w", ts, err)
		}
		if msg == nil {
			continue
		}
		if summary, ok := parser.FindSummaryMessage([]slack.Message{*msg}); ok {
			return summary, nil
		}
	}
	return nil, nil
}

func pinTimestamp(item slack.Item) string {
	if item.Message != nil && item.Message.Timestamp != "" {
		return item.Message.Timestamp
	}
	return item.Timestamp
}

// RequireIncidentChannel guards commands that only make sense inside an
// incident channel.
func (r *IncidentRepository) RequireIncidentChannel(ctx context.Context, channelID string) (*entity.IncidentMetadata, error) {
	incident := r.FindIncidentByChannel(ctx, channelID)
	if incident == nil {
		return nil, ErrNotIncidentChannel
	}
	return incident, nil
}

// UpdateIncident reconstructs the incident and overlays update. Writing the
// result back to the summary message is up to the caller.
func (r *IncidentRepository) UpdateIncident(ctx context.Context, channelID string, update entity.IncidentUpdate) (*entity.IncidentMetadata, error) {
	incident := r.FindIncidentByChannel(ctx, channelID)
	if incident == nil {
		return nil, ErrNoIncident
	}
	merged := update.Apply(*incident)
	return &merged, nil
}

// TeamMessageTS returns the ts of the team announcement, "" when none was
// posted, and ErrNoIncident outside incident channels.
func (r *IncidentRepository) TeamMessageTS(ctx context.Context, channelID string) (string, error) {
	incident := r.FindIncidentByChannel(ctx, channelID)
	if incident == nil {
		return "", ErrNoIncident
	}
	return incident.TeamMessageTS, nil
}

// History returns the most recent page of the channel, newest first.
func (r *IncidentRepository) History(ctx context.Context, channelID string) ([]slack.Message, error) {
	messages, err := r.reader.GetHistory(ctx, channelID, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return messages, nil
}

// PinnedMessages resolves every pin to its message, skipping pins whose
// message is gone.
func (r *IncidentRepository) PinnedMessages(ctx context.Context, channelID string) ([]slack.Message, error) {
	pins, err := r.reader.ListPins(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	var messages []slack.Message
	for _, pin := range pins {
		if pin.Message != nil && pin.Message.Timestamp != "" {
			messages = append(messages, *pin.Message)
			continue
		}
		ts := pinTimestamp(pin)
		if ts == "" {
			continue
		}
		msg, err := r.reader.GetHistoryAt(ctx, channelID, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to get pinned message %s: %w", ts, err)
		}
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	return messages, nil
}

// BuildTimeline reconstructs the incident and folds its history.
func (r *IncidentRepository) BuildTimeline(ctx context.Context, channelID string) (*entity.IncidentMetadata, *entity.Timeline, error) {
	incident, err := r.RequireIncidentChannel(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := r.History(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	tl := timeline.Build(incident, messages, r.now())
	return incident, &tl, nil
}

// ListIncidents reconstructs every channel carrying the incident prefix.
// Channels that fail to reconstruct are skipped.
func (r *IncidentRepository) ListIncidents(ctx context.Context) ([]IncidentChannel, error) {
	channels, err := r.reader.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	var incidents []IncidentChannel
	for _, c := range channels {
		if !r.IsIncidentChannelName(c.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return incidents, err
		}
		incident := r.FindIncidentByChannel(ctx, c.ID)
		if incident == nil {
			continue
		}
		incidents = append(incidents, IncidentChannel{ChannelID: c.ID, Incident: incident})
	}
	return incidents, nil
}

// IncidentChannel pairs a snapshot with the channel it was read from.
type IncidentChannel struct {
	ChannelID string
	Incident  *entity.IncidentMetadata
}

// IsNotIncident reports whether err means the channel is not an incident.
func IsNotIncident(err error) bool {
	return errors.Is(err, ErrNotIncidentChannel) || errors.Is(err, ErrNoIncident)
}
