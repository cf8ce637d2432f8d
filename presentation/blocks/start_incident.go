package blocks

import (
	"github.com/slack-go/slack"
)

const (
	StartIncidentCallbackID = "start_incident"
	IssueBlockID            = "incident_issue"
	IssueActionID           = "incident_issue_input"
	IncidentOptionsBlockID  = "incident_options"
	IncidentOptionsActionID = "incident_options_input"
	OptionPrivate           = "private"
	OptionTestMode          = "test_mode"
)

func StartIncident() slack.Blocks {
	return slack.Blocks{
		BlockSet: []slack.Block{
			&slack.InputBlock{
				Type:    slack.MBTInput,
				BlockID: IssueBlockID,
				Label: &slack.TextBlockObject{
					Type: "plain_text",
					Text: "Brief description of the issue",
				},
				Element: &slack.PlainTextInputBlockElement{
					Type:      slack.METPlainTextInput,
					ActionID:  IssueActionID,
					Multiline: true,
					MaxLength: 400,
					Placeholder: slack.NewTextBlockObject(
						"plain_text", "Give some brief context for others working the incident.\n\nTake a deep breath. You've got this.", false, false,
					),
				},
				Optional: false,
			},
			&slack.InputBlock{
				Type:    slack.MBTInput,
				BlockID: IncidentOptionsBlockID,
				Label:   slack.NewTextBlockObject("plain_text", " ", false, false),
				Element: slack.NewCheckboxGroupsBlockElement(
					IncidentOptionsActionID,
					slack.NewOptionBlockObject(OptionPrivate, slack.NewTextBlockObject("plain_text", "Make channel private", false, false), nil),
					slack.NewOptionBlockObject(OptionTestMode, slack.NewTextBlockObject("plain_text", "Test mode (skip team announcement)", false, false), nil),
				),
				Optional: true,
			},
		},
	}
}

// StartIncidentModal wraps StartIncident. channelID is where the command ran.
func StartIncidentModal(channelID string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      StartIncidentCallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Start Incident", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Start", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		Blocks:          StartIncident(),
		PrivateMetadata: channelID,
	}
}
