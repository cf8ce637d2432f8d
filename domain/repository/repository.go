package repository

import (
	"context"
	"errors"

	"github.com/slack-go/slack"
)

var (
	ErrSlackNotFound      = errors.New("not found")
	ErrNoIncident         = errors.New("no incident found in this channel")
	ErrNotIncidentChannel = errors.New("not an incident channel")
)

// ChannelReader is everything reconstruction needs from the chat platform.
type ChannelReader interface {
	GetChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error)
	ListPins(ctx context.Context, channelID string) ([]slack.Item, error)
	GetHistoryAt(ctx context.Context, channelID, ts string) (*slack.Message, error)
	GetHistory(ctx context.Context, channelID string, limit int) ([]slack.Message, error)
	ListChannels(ctx context.Context) ([]slack.Channel, error)
}

type MessageWriter interface {
	PostMessage(ctx context.Context, channelID string, opts ...slack.MsgOption) (string, string, error)
	PostEphemeral(ctx context.Context, channelID, userID string, opts ...slack.MsgOption) error
	UpdateMessage(ctx context.Context, channelID, ts string, opts ...slack.MsgOption) error
	AddPin(ctx context.Context, channelID, ts string) error
}

type SlackRepositoryer interface {
	ChannelReader
	MessageWriter
	GetChannelByName(ctx context.Context, name string) (*slack.Channel, error)
	CreateConversation(ctx context.Context, params slack.CreateConversationParams) (*slack.Channel, error)
	InviteUsersToConversation(ctx context.Context, channelID string, users ...string) error
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	GetUserByID(ctx context.Context, id string) (*slack.User, error)
	GetUserPreferredName(user *slack.User) string
	UploadFile(ctx context.Context, channelID, filename, title, content string) (string, error)
	FlushChannelCache()
}

type TimelineExporter interface {
	ExportTimeline(ctx context.Context, title, markdown string) (string, error)
}
