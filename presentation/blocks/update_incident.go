package blocks

import (
	"github.com/slack-go/slack"
)

const (
	UpdateIncidentCallbackID = "update_incident"
	UpdateBlockID            = "incident_update"
	UpdateActionID           = "incident_update_input"
	UpdateOptionsBlockID     = "update_options"
	UpdateOptionsActionID    = "update_options_input"
	OptionPostToChannel      = "post_to_channel"
)

func UpdateIncident() slack.Blocks {
	return slack.Blocks{
		BlockSet: []slack.Block{
			&slack.InputBlock{
				Type:    slack.MBTInput,
				BlockID: UpdateBlockID,
				Label: &slack.TextBlockObject{
					Type: "plain_text",
					Text: "Update",
				},
				Element: &slack.PlainTextInputBlockElement{
					Type:      slack.METPlainTextInput,
					ActionID:  UpdateActionID,
					Multiline: true,
					MaxLength: 300,
					Placeholder: slack.NewTextBlockObject(
						"plain_text", "This will be posted as a thread reply on the team announcement.", false, false,
					),
				},
				Optional: false,
			},
			&slack.InputBlock{
				Type:    slack.MBTInput,
				BlockID: UpdateOptionsBlockID,
				Label:   slack.NewTextBlockObject("plain_text", " ", false, false),
				Element: slack.NewCheckboxGroupsBlockElement(
					UpdateOptionsActionID,
					slack.NewOptionBlockObject(OptionPostToChannel, slack.NewTextBlockObject("plain_text", "Also post in this incident channel", false, false), nil),
				),
				Optional: true,
			},
		},
	}
}

// UpdateIncidentModal carries the incident channel in the private metadata so
// the submission knows where the update belongs.
func UpdateIncidentModal(channelID string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      UpdateIncidentCallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Send an update", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Send", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		Blocks:          UpdateIncident(),
		PrivateMetadata: channelID,
	}
}
