package entity

import (
	"time"

	"github.com/goccy/go-json"
)

type IncidentMetadata struct {
	Name                  string    `json:"name" yaml:"name"`
	Issue                 string    `json:"issue" yaml:"issue"`
	StartUserID           string    `json:"start_user_id" yaml:"start_user_id"`
	StartUserName         string    `json:"start_user_name" yaml:"start_user_name"`
	IncidentCommanderID   string    `json:"incident_commander_id,omitempty" yaml:"incident_commander_id,omitempty"`
	IncidentCommanderName string    `json:"incident_commander_name,omitempty" yaml:"incident_commander_name,omitempty"`
	IsPrivate             bool      `json:"is_private" yaml:"is_private"`
	CreatedAt             time.Time `json:"created_at" yaml:"created_at"`
	ClosedAt              time.Time `json:"closed_at,omitempty" yaml:"closed_at,omitempty"`
	SummaryMessageTS      string    `json:"summary_message_ts,omitempty" yaml:"summary_message_ts,omitempty"`
	TeamMessageTS         string    `json:"team_message_ts,omitempty" yaml:"team_message_ts,omitempty"`
}

// IsResolved reports whether a resolution time has been recorded.
func (i *IncidentMetadata) IsResolved() bool {
	return !i.ClosedAt.IsZero()
}

// MarshalJSON leaves closed_at out while the incident is open. A zero
// time.Time is not empty to the json encoder.
func (i IncidentMetadata) MarshalJSON() ([]byte, error) {
	var closedAt *time.Time
	if !i.ClosedAt.IsZero() {
		closedAt = &i.ClosedAt
	}
	return json.Marshal(struct {
		Name                  string     `json:"name"`
		Issue                 string     `json:"issue"`
		StartUserID           string     `json:"start_user_id"`
		StartUserName         string     `json:"start_user_name"`
		IncidentCommanderID   string     `json:"incident_commander_id,omitempty"`
		IncidentCommanderName string     `json:"incident_commander_name,omitempty"`
		IsPrivate             bool       `json:"is_private"`
		CreatedAt             time.Time  `json:"created_at"`
		ClosedAt              *time.Time `json:"closed_at,omitempty"`
		SummaryMessageTS      string     `json:"summary_message_ts,omitempty"`
		TeamMessageTS         string     `json:"team_message_ts,omitempty"`
	}{
		Name:                  i.Name,
		Issue:                 i.Issue,
		StartUserID:           i.StartUserID,
		StartUserName:         i.StartUserName,
		IncidentCommanderID:   i.IncidentCommanderID,
		IncidentCommanderName: i.IncidentCommanderName,
		IsPrivate:             i.IsPrivate,
		CreatedAt:             i.CreatedAt,
		ClosedAt:              closedAt,
		SummaryMessageTS:      i.SummaryMessageTS,
		TeamMessageTS:         i.TeamMessageTS,
	})
}

// ParsedIncidentData is the part of IncidentMetadata that survives in the
// summary message text. Absent string fields decode to "".
type ParsedIncidentData struct {
	Issue               string
	StartUserID         string
	IncidentCommanderID string
	TeamMessageTS       string
	ClosedAt            time.Time
}

// IncidentUpdate is a partial overwrite of IncidentMetadata. Nil fields are kept.
type IncidentUpdate struct {
	Issue                 *string
	IncidentCommanderID   *string
	IncidentCommanderName *string
	ClosedAt              *time.Time
	SummaryMessageTS      *string
	TeamMessageTS         *string
}

// Apply returns a copy of incident with the non-nil fields of u written over it.
func (u IncidentUpdate) Apply(incident IncidentMetadata) IncidentMetadata {
	if u.Issue != nil {
		incident.Issue = *u.Issue
	}
	if u.IncidentCommanderID != nil {
		incident.IncidentCommanderID = *u.IncidentCommanderID
	}
	if u.IncidentCommanderName != nil {
		incident.IncidentCommanderName = *u.IncidentCommanderName
	}
	if u.ClosedAt != nil {
		incident.ClosedAt = *u.ClosedAt
	}
	if u.SummaryMessageTS != nil {
		incident.SummaryMessageTS = *u.SummaryMessageTS
	}
	if u.TeamMessageTS != nil {
		incident.TeamMessageTS = *u.TeamMessageTS
	}
	return incident
}
