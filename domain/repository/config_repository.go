package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const DefaultChannelPrefix = "incident_"

// NewConfigRepository loads path when it exists and overlays environment
// variables (incident.team_update_channel_id <- INCIDENT_TEAM_UPDATE_CHANNEL_ID).
func NewConfigRepository(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("incident.channel_prefix", DefaultChannelPrefix)
	v.SetDefault("incident.history_limit", 1000)
	v.SetDefault("incident.reminder_interval", time.Duration(0))
	v.SetDefault("incident.reminder_notification", "none")
	v.SetDefault("incident.team_update_channel_id", "")
	v.SetDefault("confluence.domain", "")
	v.SetDefault("confluence.space", "")
	v.SetDefault("confluence.ancestor_id", "")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// legacy variable name for the team channel
	if id := os.Getenv("TEAM_UPDATE_CHANNEL_ID"); id != "" {
		v.SetDefault("incident.team_update_channel_id", id)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config error: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	valid := validator.New()
	if err := valid.Struct(c); err != nil {
		return nil, fmt.Errorf("validate config error: %w", err)
	}

	return &c, nil
}

type Config struct {
	Incident   IncidentConfig   `mapstructure:"incident"`
	Confluence ConfluenceConfig `mapstructure:"confluence"`
}

type IncidentConfig struct {
	ChannelPrefix        string        `mapstructure:"channel_prefix" validate:"required"`
	TeamUpdateChannelID  string        `mapstructure:"team_update_channel_id"`
	HistoryLimit         int           `mapstructure:"history_limit" validate:"gte=1,lte=1000"`
	ReminderInterval     time.Duration `mapstructure:"reminder_interval" validate:"gte=0"`
	ReminderNotification string        `mapstructure:"reminder_notification" validate:"oneof=here channel none"`
}

type ConfluenceConfig struct {
	AncestorID string `mapstructure:"ancestor_id"`
	Space      string `mapstructure:"space"`
	Domain     string `mapstructure:"domain"`
}

// Enabled reports whether timeline exports can go to Confluence.
func (c ConfluenceConfig) Enabled() bool {
	return c.Domain != "" && os.Getenv("CONFLUENCE_USERNAME") != "" && os.Getenv("CONFLUENCE_PASSWORD") != ""
}
