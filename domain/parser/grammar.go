package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// Labels and markers shared by the summary encoder and the decoder. Changing
// any of these breaks decoding of summaries posted before the change.
const (
	IssueLabel        = "*Issue:*"
	CommanderLabel    = "*Incident Commander:*"
	StartedByMarker   = "Started by"
	ResolvedLabel     = "*Resolved:*"
	NoneAssigned      = "_None assigned_"
	SummaryHeaderID   = "fishstick_summary_v1"
	ArchivesBaseURL   = "https://slack.com/archives"
	TeamLinkLabel     = "View team announcement"
	SummaryFooter     = "Use `/incident help` to get command options."
	BotMessageSubType = "bot_message"
)

// Leading markers of the timeline message kinds. Each kind accepts the
// unicode glyph and its Slack emoji code.
var (
	LogMarkers     = []string{"🕐", ":clock"}
	UpdateMarker   = "📢 Update from"
	ICMarkers      = []string{"🎯", ":dart:"}
	ResolveMarkers = []string{"✅", ":white_check_mark:"}
)

const (
	icPhrase      = "Incident Commander"
	handoffPhrase = "handoff"
	resolvePhrase = "Incident resolved"
	updateSep     = ":\n\n"
	archiveTSLen  = 10
)

var (
	mentionRe   = regexp.MustCompile(`<@(\w+)>`)
	issuePrefix = regexp.MustCompile(`^\*Issue:\*\s*\n?\s*`)
	startedByRe = regexp.MustCompile(`Started by \*<@(\w+)>`)
	dateTokenRe = regexp.MustCompile(`date\^(\d+)\^`)
	archiveRe   = regexp.MustCompile(`/archives/[^/]+/p(\d+)`)
)

// Mention renders a user mention.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// DateToken renders a Slack date token that clients localize, falling back
// to the RFC3339 text.
func DateToken(t time.Time, format string) string {
	return fmt.Sprintf("<!date^%d^%s|%s>", t.Unix(), format, t.UTC().Format(time.RFC3339))
}

// Permalink builds an archive link to the message ts in channelID.
func Permalink(channelID, ts string) string {
	return fmt.Sprintf("%s/%s/p%s", ArchivesBaseURL, channelID, strings.Replace(ts, ".", "", 1))
}

// FirstMention returns the first user ID mentioned in text.
func FirstMention(text string) (string, bool) {
	m := mentionRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SlackTimestamp parses a message ts such as "1234567890.123456". Unparseable
// values yield 0.
func SlackTimestamp(ts string) float64 {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return f
}

func hasLeadingMarker(text string, markers ...string) bool {
	text = strings.TrimSpace(text)
	for _, m := range markers {
		if strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

func stripLeadingMarker(text string, markers ...string) string {
	text = strings.TrimSpace(text)
	for _, m := range markers {
		if strings.HasPrefix(text, m) {
			return strings.TrimSpace(strings.TrimPrefix(text, m))
		}
	}
	return text
}

func sectionText(b slack.Block) (string, bool) {
	s, ok := b.(*slack.SectionBlock)
	if !ok || s.Text == nil {
		return "", false
	}
	return s.Text.Text, true
}

func contextElementTexts(b slack.Block) []*slack.TextBlockObject {
	c, ok := b.(*slack.ContextBlock)
	if !ok {
		return nil
	}
	var texts []*slack.TextBlockObject
	for _, e := range c.ContextElements.Elements {
		if t, ok := e.(*slack.TextBlockObject); ok {
			texts = append(texts, t)
		}
	}
	return texts
}
