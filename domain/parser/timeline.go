package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/slack-go/slack"
)

// logGrammar is one version of the context-block template written by
// `/incident log`.
type logGrammar struct {
	version string
	re      *regexp.Regexp
	build   func(m []string, msg *slack.Message) entity.TimelineEvent
}

// logGrammars are tried in order, newest first. A new template is added by
// prepending an entry.
var logGrammars = []logGrammar{
	{
		version: "v2",
		re:      regexp.MustCompile(`(?s)date\^(\d+)\^.+?\|.+?> - <@(\w+)>: \*(.+)\*\s*$`),
		build: func(m []string, _ *slack.Message) entity.TimelineEvent {
			return entity.TimelineEvent{
				Timestamp: SlackTimestamp(m[1]),
				Type:      entity.TimelineEventLog,
				Text:      Mention(m[2]) + ": " + m[3],
				User:      m[2],
			}
		},
	},
	{
		version: "v1",
		re:      regexp.MustCompile(`date\^(\d+)\^.+?\|.+?> - \*(.+?)\*`),
		build: func(m []string, msg *slack.Message) entity.TimelineEvent {
			return entity.TimelineEvent{
				Timestamp: SlackTimestamp(m[1]),
				Type:      entity.TimelineEventLog,
				Text:      m[2],
				User:      msg.User,
			}
		},
	},
}

// ParseLogEvent matches a message posted by `/incident log`.
func ParseLogEvent(msg *slack.Message) (*entity.TimelineEvent, bool) {
	if !hasLeadingMarker(msg.Text, LogMarkers...) {
		return nil, false
	}

	var contextBlock slack.Block
	for _, b := range msg.Blocks.BlockSet {
		if b.BlockType() == slack.MBTContext {
			contextBlock = b
			break
		}
	}
	if contextBlock == nil {
		return nil, false
	}

	c, ok := contextBlock.(*slack.ContextBlock)
	if !ok || len(c.ContextElements.Elements) == 0 {
		return nil, false
	}
	first, ok := c.ContextElements.Elements[0].(*slack.TextBlockObject)
	if !ok {
		return nil, false
	}

	for _, g := range logGrammars {
		if m := g.re.FindStringSubmatch(first.Text); m != nil {
			ev := g.build(m, msg)
			return &ev, true
		}
	}
	return nil, false
}

// ParseUpdateEvent matches "📢 Update from <@U>:\n\nbody".
func ParseUpdateEvent(msg *slack.Message) (*entity.TimelineEvent, bool) {
	if !hasLeadingMarker(msg.Text, UpdateMarker) {
		return nil, false
	}
	user, ok := FirstMention(msg.Text)
	if !ok {
		return nil, false
	}
	parts := strings.SplitN(msg.Text, updateSep, 2)
	if len(parts) < 2 {
		return nil, false
	}
	return &entity.TimelineEvent{
		Timestamp: SlackTimestamp(msg.Timestamp),
		Type:      entity.TimelineEventUpdate,
		Text:      parts[1],
		User:      user,
	}, true
}

// ParseICEvent matches IC assignment and handoff announcements. The mention
// stays in the text.
func ParseICEvent(msg *slack.Message) (*entity.TimelineEvent, bool) {
	if !hasLeadingMarker(msg.Text, ICMarkers...) {
		return nil, false
	}
	if !strings.Contains(msg.Text, icPhrase) && !strings.Contains(msg.Text, handoffPhrase) {
		return nil, false
	}
	return &entity.TimelineEvent{
		Timestamp: SlackTimestamp(msg.Timestamp),
		Type:      entity.TimelineEventIC,
		Text:      stripLeadingMarker(msg.Text, ICMarkers...),
	}, true
}

// ParseResolveEvent matches "✅ Incident resolved by <@U> after Xh Ym".
func ParseResolveEvent(msg *slack.Message) (*entity.TimelineEvent, bool) {
	if !hasLeadingMarker(msg.Text, ResolveMarkers...) || !strings.Contains(msg.Text, resolvePhrase) {
		return nil, false
	}
	ev := &entity.TimelineEvent{
		Timestamp: SlackTimestamp(msg.Timestamp),
		Type:      entity.TimelineEventResolve,
		Text:      resolvePhrase,
	}
	if user, ok := FirstMention(msg.Text); ok {
		ev.User = user
		ev.Text = resolvePhrase + " by " + Mention(user)
	}
	return ev, true
}

type matcher func(*slack.Message) (*entity.TimelineEvent, bool)

var matchers = []matcher{
	ParseLogEvent,
	ParseUpdateEvent,
	ParseICEvent,
	ParseResolveEvent,
}

// ParseTimelineEvents classifies each message by the first matcher that
// accepts it. Unmatched messages are dropped.
func ParseTimelineEvents(messages []slack.Message) []entity.TimelineEvent {
	events := []entity.TimelineEvent{}
	for i := range messages {
		for _, match := range matchers {
			if ev, ok := match(&messages[i]); ok {
				events = append(events, *ev)
				break
			}
		}
	}
	return events
}

// SortTimelineEvents returns a copy of events ordered by timestamp. Equal
// timestamps keep their input order.
func SortTimelineEvents(events []entity.TimelineEvent) []entity.TimelineEvent {
	sorted := make([]entity.TimelineEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// Participants returns the distinct human authors of messages in first-seen
// order.
func Participants(messages []slack.Message) []string {
	seen := map[string]struct{}{}
	var users []string
	for _, m := range messages {
		if m.User == "" || m.BotID != "" || m.SubType == BotMessageSubType {
			continue
		}
		if _, ok := seen[m.User]; ok {
			continue
		}
		seen[m.User] = struct{}{}
		users = append(users, m.User)
	}
	return users
}
