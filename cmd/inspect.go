package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/repository"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

var outputFormat string

func newIncidentRepository() (*repository.IncidentRepository, func(), error) {
	if err := requireEnv("SLACK_BOT_TOKEN"); err != nil {
		return nil, nil, err
	}
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	slackRepository := repository.NewSlackRepository(slack.New(os.Getenv("SLACK_BOT_TOKEN")))
	return repository.NewIncidentRepository(slackRepository, config.Incident), slackRepository.Stop, nil
}

var showCmd = &cobra.Command{
	Use:   "show <channel-id>",
	Short: "Print the incident reconstructed from a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		incidents, stop, err := newIncidentRepository()
		if err != nil {
			return err
		}
		defer stop()

		incident, err := incidents.RequireIncidentChannel(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return encode(cmd.OutOrStdout(), outputFormat, incident, func(w io.Writer) error {
			return writeIncident(w, incident)
		})
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <channel-id>",
	Short: "Print the timeline of an incident channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		incidents, stop, err := newIncidentRepository()
		if err != nil {
			return err
		}
		defer stop()

		incident, tl, err := incidents.BuildTimeline(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		view := newTimelineView(incident, tl)
		return encode(cmd.OutOrStdout(), outputFormat, view, func(w io.Writer) error {
			return writeTimeline(w, view)
		})
	},
}

type listedIncident struct {
	ChannelID string                   `json:"channel_id" yaml:"channel_id"`
	Incident  *entity.IncidentMetadata `json:"incident" yaml:"incident"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List incident channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		incidents, stop, err := newIncidentRepository()
		if err != nil {
			return err
		}
		defer stop()

		found, err := incidents.ListIncidents(cmd.Context())
		if err != nil {
			return err
		}
		listed := make([]listedIncident, 0, len(found))
		for _, f := range found {
			listed = append(listed, listedIncident{ChannelID: f.ChannelID, Incident: f.Incident})
		}
		return encode(cmd.OutOrStdout(), outputFormat, listed, func(w io.Writer) error {
			for _, l := range listed {
				status := "open"
				if l.Incident.IsResolved() {
					status = "resolved"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ChannelID, l.Incident.Name, status, l.Incident.Issue)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{showCmd, timelineCmd, listCmd} {
		c.Flags().StringVarP(&outputFormat, "output", "o", outputText, "output format (text|json|yaml)")
		rootCmd.AddCommand(c)
	}
}
