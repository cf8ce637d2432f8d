package blocks

import (
	"fmt"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/parser"
	"github.com/slack-go/slack"
)

const dateFormatLong = "{date_short_pretty} at {time}"

// IncidentSummary renders the pinned summary message. The team announcement
// link is only written when both the announcement ts and the team channel
// are known.
func IncidentSummary(incident *entity.IncidentMetadata, teamChannelID string) []slack.Block {
	commander := parser.NoneAssigned
	if incident.IncidentCommanderID != "" {
		commander = parser.Mention(incident.IncidentCommanderID)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, incident.Name, false, false),
			slack.HeaderBlockOptionBlockID(parser.SummaryHeaderID),
		),
		slack.NewDividerBlock(),
		markdownSection(fmt.Sprintf("%s\n %s", parser.IssueLabel, incident.Issue)),
		markdownSection(fmt.Sprintf("%s %s", parser.CommanderLabel, commander)),
		markdownSection(fmt.Sprintf("%s *%s* %s",
			parser.StartedByMarker,
			parser.Mention(incident.StartUserID),
			parser.DateToken(incident.CreatedAt, dateFormatLong),
		)),
	}

	if incident.IsResolved() {
		blocks = append(blocks, markdownSection(fmt.Sprintf("%s %s",
			parser.ResolvedLabel,
			parser.DateToken(incident.ClosedAt, dateFormatLong),
		)))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		markdownContext(parser.SummaryFooter),
	)

	if incident.TeamMessageTS != "" && teamChannelID != "" {
		blocks = append(blocks, markdownContext(fmt.Sprintf("<%s|%s>",
			parser.Permalink(teamChannelID, incident.TeamMessageTS),
			parser.TeamLinkLabel,
		)))
	}
	return blocks
}

// IncidentSummaryText is the notification fallback of the summary message.
func IncidentSummaryText(incident *entity.IncidentMetadata) string {
	if incident.IsResolved() {
		return fmt.Sprintf("%s - RESOLVED", incident.Name)
	}
	return fmt.Sprintf("%s - Incident", incident.Name)
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil,
		nil,
	)
}

func markdownContext(text string) *slack.ContextBlock {
	return slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
	)
}
