package blocks

// Ephemeral replies to slash commands and modal submissions.
const (
	NotIncidentChannelText     = "This command must be used in an incident channel."
	AlreadyCommanderText       = "You're already the Incident Commander, but extra points for enthusiasm!"
	AlreadyResolvedText        = "This incident is already resolved."
	PrivateNoUpdatesText       = "This incident channel is private so no public updates can be shared."
	LogUsageText               = "Please provide an event description: `/incident log <your event>`"
	DefaultIssue               = "Pending description"
	TimelineFailedText         = "Failed to generate timeline. Please try again."
	ExportFailedText           = "Failed to export timeline. Please try again."
	ResolveFailedText          = "Failed to resolve incident. Please try again."
	LogFailedText              = "Failed to log event. Please try again."
	CommanderFailedText        = "Failed to update the Incident Commander. Please try again."
	MentionInIncidentText      = "I'm tracking this incident. Try `/incident help` for available commands."
	MentionOutsideIncidentText = "Run `/incident` to start a new incident."
	NoSummaryText              = "This incident has no pinned summary message, so the change was not saved."
)

// UpdateConfirmation tells the author where an update went.
func UpdateConfirmation(teamSent, channelPosted bool) string {
	switch {
	case teamSent && channelPosted:
		return "Update sent to team channel (visible in main channel) and posted in incident channel."
	case teamSent:
		return "Update sent to team channel thread."
	case channelPosted:
		return "Update posted in incident channel only (no team channel configured)."
	default:
		return "No team channel configured."
	}
}

func TimelineExported(url string) string {
	return "Timeline exported: " + url
}

const TimelineUploadedText = "Timeline report uploaded to this channel."
