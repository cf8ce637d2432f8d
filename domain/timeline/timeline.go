// Package timeline folds an incident's chat history into an ordered timeline.
// Everything here is pure: callers fetch the history and the snapshot.
package timeline

import (
	"fmt"
	"time"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/parser"
	"github.com/slack-go/slack"
)

// StartEvent synthesizes the "incident started" entry from the snapshot. It
// is omitted when either the creation time or the starter is unknown.
func StartEvent(incident *entity.IncidentMetadata) (entity.TimelineEvent, bool) {
	if incident.CreatedAt.IsZero() || incident.StartUserID == "" {
		return entity.TimelineEvent{}, false
	}
	return entity.TimelineEvent{
		Timestamp: float64(incident.CreatedAt.UnixNano()) / float64(time.Second),
		Type:      entity.TimelineEventStart,
		Text:      fmt.Sprintf("Incident started by %s", parser.Mention(incident.StartUserID)),
		User:      incident.StartUserID,
	}, true
}

// Build replays messages against incident. The bot's own channel-creation
// message accounts for one author, so the participant count is one less
// than the distinct human authors, floored at zero.
func Build(incident *entity.IncidentMetadata, messages []slack.Message, now time.Time) entity.Timeline {
	var events []entity.TimelineEvent
	if start, ok := StartEvent(incident); ok {
		events = append(events, start)
	}
	events = append(events, parser.ParseTimelineEvents(messages)...)

	participants := parser.Participants(messages)
	count := len(participants) - 1
	if count < 0 {
		count = 0
	}

	return entity.Timeline{
		Events:           parser.SortTimelineEvents(events),
		Participants:     participants,
		ParticipantCount: count,
		Duration:         Duration(incident, now),
		Resolved:         incident.IsResolved(),
	}
}

// Duration runs from creation to resolution, or to now while unresolved.
func Duration(incident *entity.IncidentMetadata, now time.Time) time.Duration {
	if incident.CreatedAt.IsZero() {
		return 0
	}
	end := now
	if incident.IsResolved() {
		end = incident.ClosedAt
	}
	d := end.Sub(incident.CreatedAt)
	if d < 0 {
		return 0
	}
	return d
}

// FormatDuration renders d as "Xh Ym".
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
