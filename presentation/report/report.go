// Package report renders a reconstructed incident timeline for people: as
// Slack mrkdwn for the ephemeral `/incident timeline` reply and as Markdown
// for exports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/parser"
	"github.com/pyama86/fishstick/domain/timeline"
	"github.com/slack-go/slack"
)

const (
	pinnedTextLimit = 100
	stampFormat     = "Jan 2 15:04"
)

var eventGlyphs = map[entity.TimelineEventType]string{
	entity.TimelineEventStart:   "🚨",
	entity.TimelineEventLog:     "🕐",
	entity.TimelineEventUpdate:  "📢",
	entity.TimelineEventIC:      "🎯",
	entity.TimelineEventResolve: "✅",
}

// Input is everything a report shows. Pinned may include the summary
// message; it is filtered out by SummaryMessageTS.
type Input struct {
	ChannelID string
	Incident  *entity.IncidentMetadata
	Timeline  *entity.Timeline
	Pinned    []slack.Message
}

func stamp(ts float64) string {
	sec := int64(ts)
	return time.Unix(sec, 0).UTC().Format(stampFormat)
}

func eventText(ev entity.TimelineEvent) string {
	if ev.Type == entity.TimelineEventUpdate && ev.User != "" {
		return parser.Mention(ev.User) + ": " + ev.Text
	}
	return ev.Text
}

func durationLine(in Input) string {
	d := timeline.FormatDuration(in.Timeline.Duration)
	if in.Timeline.Resolved {
		d += " (resolved)"
	}
	return d
}

type pinnedLine struct {
	at   string
	link string
	text string
}

func pinnedLines(in Input) []pinnedLine {
	var lines []pinnedLine
	for _, m := range in.Pinned {
		if m.Timestamp == in.Incident.SummaryMessageTS {
			continue
		}
		at := stamp(parser.SlackTimestamp(m.Timestamp))
		link := parser.Permalink(in.ChannelID, m.Timestamp)
		if len(m.Files) > 0 {
			for _, f := range m.Files {
				name := f.Name
				if name == "" {
					name = "File"
				}
				lines = append(lines, pinnedLine{at: at, link: link, text: "📎 " + name})
			}
			continue
		}
		if m.Text == "" {
			continue
		}
		lines = append(lines, pinnedLine{at: at, link: link, text: truncate(m.Text, pinnedTextLimit)})
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Slack renders the mrkdwn report.
func Slack(in Input) string {
	var b strings.Builder
	b.WriteString("*Incident Timeline Report*\n\n")
	fmt.Fprintf(&b, "*Channel:* %s\n", in.Incident.Name)
	fmt.Fprintf(&b, "*Issue:* %s\n", in.Incident.Issue)
	fmt.Fprintf(&b, "*Duration:* %s\n", durationLine(in))
	if in.Incident.IncidentCommanderID != "" {
		fmt.Fprintf(&b, "*Incident Commander:* %s\n", parser.Mention(in.Incident.IncidentCommanderID))
	}
	fmt.Fprintf(&b, "*Participants:* %d\n", in.Timeline.ParticipantCount)
	b.WriteString("\n---\n\n")

	if len(in.Timeline.Events) > 0 {
		b.WriteString("*📋 Timeline* (all times UTC)\n\n")
		for _, ev := range in.Timeline.Events {
			fmt.Fprintf(&b, "• %s %s %s\n", stamp(ev.Timestamp), eventGlyphs[ev.Type], eventText(ev))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("*📋 Timeline*\n\n_No events logged yet._\n\n")
	}

	if lines := pinnedLines(in); len(lines) > 0 {
		b.WriteString("*📌 Pinned Items* (all times UTC)\n\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "• %s - <%s|%s>\n", l.at, l.link, l.text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Title is the export page title.
func Title(incident *entity.IncidentMetadata) string {
	if incident.CreatedAt.IsZero() {
		return fmt.Sprintf("Incident Timeline: %s", incident.Name)
	}
	return fmt.Sprintf("Incident Timeline: %s (%s)", incident.Name, incident.CreatedAt.UTC().Format("2006-01-02"))
}

// Markdown renders the export document. Names replaces user IDs where the
// caller resolved them.
func Markdown(in Input, names map[string]string) string {
	who := func(id string) string {
		if n, ok := names[id]; ok && n != "" {
			return "@" + n
		}
		return "@" + id
	}
	mentions := func(s string) string {
		for id := range names {
			s = strings.ReplaceAll(s, parser.Mention(id), who(id))
		}
		return s
	}

	commander := "None assigned"
	if in.Incident.IncidentCommanderID != "" {
		commander = who(in.Incident.IncidentCommanderID)
	}
	started := "-"
	if !in.Incident.CreatedAt.IsZero() {
		started = in.Incident.CreatedAt.UTC().Format(time.RFC3339)
	}
	status := "Open"
	if in.Timeline.Resolved {
		status = "Resolved " + in.Incident.ClosedAt.UTC().Format(time.RFC3339)
	}

	var events strings.Builder
	if len(in.Timeline.Events) == 0 {
		events.WriteString("_No events logged yet._\n")
	}
	for _, ev := range in.Timeline.Events {
		fmt.Fprintf(&events, "- %s %s %s\n", stamp(ev.Timestamp), eventGlyphs[ev.Type], mentions(eventText(ev)))
	}

	var pinned strings.Builder
	for _, l := range pinnedLines(in) {
		fmt.Fprintf(&pinned, "- %s [%s](%s)\n", l.at, mentions(l.text), l.link)
	}
	if pinned.Len() == 0 {
		pinned.WriteString("_None._\n")
	}

	starter := "-"
	if in.Incident.StartUserID != "" {
		starter = who(in.Incident.StartUserID)
	}

	return fmt.Sprintf(`# %s

## Issue

%s

## Summary

- Started: %s
- Started by: %s
- Incident Commander: %s
- Status: %s
- Duration: %s
- Participants: %d

## Timeline (UTC)

%s
## Pinned Items

%s
## Links

- [Incident channel](%s/%s)
`, in.Incident.Name, in.Incident.Issue, started, starter, commander, status,
		timeline.FormatDuration(in.Timeline.Duration), in.Timeline.ParticipantCount,
		events.String(), pinned.String(), parser.ArchivesBaseURL, in.ChannelID)
}
