package blocks

import "fmt"

const HelpText = "*Fishstick Incident Bot*\n\n" +
	"`/incident` - Start a new incident\n" +
	"`/incident update` - Send an update to the team channel\n" +
	"`/incident ic` - Check in as Incident Commander\n" +
	"`/incident log <event>` - Log a timeline event\n" +
	"`/incident timeline` - Generate incident timeline report\n" +
	"`/incident export` - Export the timeline report\n" +
	"`/incident resolve` - Mark incident as resolved"

func UnknownCommand(text string) string {
	return fmt.Sprintf("Unknown command: `%s`\n\nTry `/incident help` for available commands.", text)
}
