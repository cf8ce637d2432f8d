package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/slack-go/slack"
)

// HasSummaryHeader reports whether msg looks like a summary message. Any
// header block qualifies.
func HasSummaryHeader(msg *slack.Message) bool {
	for _, b := range msg.Blocks.BlockSet {
		if b.BlockType() == slack.MBTHeader {
			return true
		}
	}
	return false
}

// FindSummaryMessage returns the first message carrying a header block.
func FindSummaryMessage(messages []slack.Message) (*slack.Message, bool) {
	for i := range messages {
		if HasSummaryHeader(&messages[i]) {
			return &messages[i], true
		}
	}
	return nil, false
}

// DecodeSummary extracts incident fields from the blocks of a summary
// message. Every extractor runs against every block so that reordered or
// partial summaries still decode.
func DecodeSummary(msg *slack.Message) entity.ParsedIncidentData {
	var result entity.ParsedIncidentData
	if msg == nil {
		return result
	}

	for _, b := range msg.Blocks.BlockSet {
		if text, ok := sectionText(b); ok {
			if issue, ok := extractIssue(text); ok {
				result.Issue = issue
			}
			if ic, ok := extractIncidentCommander(text); ok {
				result.IncidentCommanderID = ic
			}
			if starter, ok := extractStarterUser(text); ok {
				result.StartUserID = starter
			}
			if closedAt, ok := extractResolvedAt(text); ok {
				result.ClosedAt = closedAt
			}
		}

		if ts, ok := extractTeamMessageTS(b); ok {
			result.TeamMessageTS = ts
		}
	}
	return result
}

func extractIssue(text string) (string, bool) {
	if !strings.HasPrefix(text, IssueLabel) {
		return "", false
	}
	return strings.TrimSpace(issuePrefix.ReplaceAllString(text, "")), true
}

// A present label without a mention means the IC was cleared.
func extractIncidentCommander(text string) (string, bool) {
	if !strings.Contains(text, CommanderLabel) {
		return "", false
	}
	id, _ := FirstMention(text)
	return id, true
}

func extractStarterUser(text string) (string, bool) {
	if !strings.Contains(text, StartedByMarker) {
		return "", false
	}
	m := startedByRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func extractResolvedAt(text string) (time.Time, bool) {
	if !strings.HasPrefix(text, ResolvedLabel) {
		return time.Time{}, false
	}
	m := dateTokenRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// extractTeamMessageTS turns ".../archives/C123/p1735732900123456" back into
// "1735732900.123456".
func extractTeamMessageTS(b slack.Block) (string, bool) {
	for _, t := range contextElementTexts(b) {
		if t.Type != slack.MarkdownType || !strings.Contains(t.Text, "/archives/") {
			continue
		}
		m := archiveRe.FindStringSubmatch(t.Text)
		if m == nil {
			continue
		}
		digits := m[1]
		if len(digits) <= archiveTSLen {
			return digits, true
		}
		return digits[:archiveTSLen] + "." + digits[archiveTSLen:], true
	}
	return "", false
}
