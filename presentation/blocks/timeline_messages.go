package blocks

import (
	"fmt"
	"time"

	"github.com/pyama86/fishstick/domain/parser"
	"github.com/slack-go/slack"
)

// LogEvent renders a `/incident log` entry. The context block carries the
// current log grammar; the plain text is only a notification fallback.
func LogEvent(userID, text string, at time.Time) (string, []slack.Block) {
	fallback := fmt.Sprintf("%s %s - %s: %s",
		parser.LogMarkers[0], parser.DateToken(at, "{time}"), parser.Mention(userID), text)
	return fallback, []slack.Block{
		markdownContext(fmt.Sprintf("%s %s - %s: *%s*",
			parser.LogMarkers[0], parser.DateToken(at, dateFormatLong), parser.Mention(userID), text)),
	}
}

func IncidentUpdate(userID, text string) string {
	return fmt.Sprintf("%s %s:\n\n%s", parser.UpdateMarker, parser.Mention(userID), text)
}

// TeamIncidentUpdate is the thread reply on the team announcement.
func TeamIncidentUpdate(userID, text string, at time.Time) string {
	return fmt.Sprintf("%s %s at <!date^%d^{time}|now>:\n\n%s",
		parser.UpdateMarker, parser.Mention(userID), at.Unix(), text)
}

func IncidentCommanderAssigned(userID string) string {
	return fmt.Sprintf("%s %s is now the Incident Commander!", parser.ICMarkers[0], parser.Mention(userID))
}

func IncidentCommanderHandoff(previousID, userID string) string {
	return fmt.Sprintf("%s Incident Commander handoff: %s → %s",
		parser.ICMarkers[0], parser.Mention(previousID), parser.Mention(userID))
}

func IncidentResolved(userID, duration string) string {
	return fmt.Sprintf("%s Incident resolved by %s after %s", parser.ResolveMarkers[0], parser.Mention(userID), duration)
}

func IncidentChannelCreated(userID string) string {
	return fmt.Sprintf("🚨 Incident Channel Created by %s", parser.Mention(userID))
}

func IncidentChannelLink(channelID, channelName string) string {
	return fmt.Sprintf("Created channel <#%s|%s>.", channelID, channelName)
}
