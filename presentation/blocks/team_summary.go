package blocks

import (
	"fmt"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/parser"
	"github.com/slack-go/slack"
)

// TeamSummary is the announcement posted to the team update channel. Updates
// are threaded under it.
func TeamSummary(incident *entity.IncidentMetadata, channelID string) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("🚨 %s", incident.Name), false, false),
		),
		slack.NewDividerBlock(),
		markdownSection(fmt.Sprintf("%s\n %s", parser.IssueLabel, incident.Issue)),
		slack.NewDividerBlock(),
		markdownSection(fmt.Sprintf("*Incident Channel:* <#%s>", channelID)),
	}
}

func TeamSummaryText(incident *entity.IncidentMetadata) string {
	return fmt.Sprintf("🚨 %s - %s", incident.Name, incident.Issue)
}
