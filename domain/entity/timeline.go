package entity

import "time"

type TimelineEventType string

const (
	TimelineEventStart   TimelineEventType = "start"
	TimelineEventLog     TimelineEventType = "log"
	TimelineEventUpdate  TimelineEventType = "update"
	TimelineEventIC      TimelineEventType = "ic"
	TimelineEventResolve TimelineEventType = "resolve"
)

type TimelineEvent struct {
	Timestamp float64           `json:"timestamp" yaml:"timestamp"`
	Type      TimelineEventType `json:"type" yaml:"type"`
	Text      string            `json:"text" yaml:"text"`
	User      string            `json:"user,omitempty" yaml:"user,omitempty"`
}

// Time converts the fractional epoch seconds of the event.
func (e TimelineEvent) Time() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

type Timeline struct {
	Events           []TimelineEvent `json:"events" yaml:"events"`
	Participants     []string        `json:"participants" yaml:"participants"`
	ParticipantCount int             `json:"participant_count" yaml:"participant_count"`
	Duration         time.Duration   `json:"duration" yaml:"duration"`
	Resolved         bool            `json:"resolved" yaml:"resolved"`
}
