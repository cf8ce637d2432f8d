package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/timeline"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// timelineView is the serialized shape of `fishstick timeline`.
type timelineView struct {
	Incident         *entity.IncidentMetadata `json:"incident" yaml:"incident"`
	Events           []entity.TimelineEvent   `json:"events" yaml:"events"`
	Participants     []string                 `json:"participants" yaml:"participants"`
	ParticipantCount int                      `json:"participant_count" yaml:"participant_count"`
	Duration         string                   `json:"duration" yaml:"duration"`
	Resolved         bool                     `json:"resolved" yaml:"resolved"`
}

func newTimelineView(incident *entity.IncidentMetadata, tl *entity.Timeline) timelineView {
	return timelineView{
		Incident:         incident,
		Events:           tl.Events,
		Participants:     tl.Participants,
		ParticipantCount: tl.ParticipantCount,
		Duration:         timeline.FormatDuration(tl.Duration),
		Resolved:         tl.Resolved,
	}
}

func encode(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case outputText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeIncident(w io.Writer, incident *entity.IncidentMetadata) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", incident.Name)
	fmt.Fprintf(tw, "Issue:\t%s\n", orDash(incident.Issue))
	fmt.Fprintf(tw, "Started by:\t%s\n", orDash(incident.StartUserID))
	fmt.Fprintf(tw, "Incident Commander:\t%s\n", orDash(incident.IncidentCommanderID))
	fmt.Fprintf(tw, "Private:\t%t\n", incident.IsPrivate)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(incident.CreatedAt))
	fmt.Fprintf(tw, "Resolved:\t%s\n", formatTime(incident.ClosedAt))
	fmt.Fprintf(tw, "Summary ts:\t%s\n", orDash(incident.SummaryMessageTS))
	fmt.Fprintf(tw, "Team announcement ts:\t%s\n", orDash(incident.TeamMessageTS))
	return tw.Flush()
}

func writeTimeline(w io.Writer, v timelineView) error {
	if err := writeIncident(w, v.Incident); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDuration: %s", v.Duration)
	if v.Resolved {
		fmt.Fprint(w, " (resolved)")
	}
	fmt.Fprintf(w, "\nParticipants: %d\n\n", v.ParticipantCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ev := range v.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", formatTime(ev.Time()), ev.Type, ev.Text)
	}
	return tw.Flush()
}
