package blocks

import (
	"fmt"

	"github.com/slack-go/slack"
)

// CommanderReminder nudges an incident channel that still has no IC.
func CommanderReminder(elapsed, notificationType string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(
				"mrkdwn",
				AddNotification(
					fmt.Sprintf(":alarm_clock: This incident has been open for *%s* and nobody has checked in as commander yet.", elapsed),
					notificationType,
				),
				false,
				false,
			),
			nil,
			nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject("mrkdwn", "Run `/incident ic` to take command.", false, false),
		),
	}
}
