package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Songmu/retry"
	ttlcache "github.com/jellydator/ttlcache/v3"
	"github.com/slack-go/slack"
)

var (
	retryCount    uint = 10
	retryInterval      = 3 * time.Second
)

type SlackRepository struct {
	client        *slack.Client
	channelsCache *ttlcache.Cache[string, []slack.Channel]
	usersCache    *ttlcache.Cache[string, *slack.User]
}

func NewSlackRepository(client *slack.Client) *SlackRepository {
	r := &SlackRepository{
		client:        client,
		channelsCache: ttlcache.New(ttlcache.WithTTL[string, []slack.Channel](time.Hour)),
		usersCache:    ttlcache.New(ttlcache.WithTTL[string, *slack.User](time.Hour)),
	}
	go r.channelsCache.Start()
	go r.usersCache.Start()
	return r
}

// Stop halts the cache janitors.
func (h *SlackRepository) Stop() {
	h.channelsCache.Stop()
	h.usersCache.Stop()
}

func (h *SlackRepository) FlushChannelCache() {
	h.channelsCache.DeleteAll()
}

func (h *SlackRepository) GetChannelInfo(ctx context.Context, channelID string) (*slack.Channel, error) {
	return h.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
}

func (h *SlackRepository) ListPins(ctx context.Context, channelID string) ([]slack.Item, error) {
	items, _, err := h.client.ListPinsContext(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetHistoryAt returns the channel message whose ts is exactly ts, or nil
// when history has nothing there (deleted message, thread reply).
func (h *SlackRepository) GetHistoryAt(ctx context.Context, channelID, ts string) (*slack.Message, error) {
	res, err := h.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Limit:     1,
		Inclusive: true,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Messages) == 0 || res.Messages[0].Timestamp != ts {
		return nil, nil
	}
	return &res.Messages[0], nil
}

func (h *SlackRepository) GetHistory(ctx context.Context, channelID string, limit int) ([]slack.Message, error) {
	res, err := h.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (h *SlackRepository) ListChannels(ctx context.Context) ([]slack.Channel, error) {
	cacheKey := "channels"
	if channels := h.channelsCache.Get(cacheKey); channels != nil {
		return channels.Value(), nil
	}
	nextCursor := ""
	channels := make([]slack.Channel, 0)
	for {
		cs, next, err := h.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:           []string{"public_channel", "private_channel"},
			Limit:           1000,
			Cursor:          nextCursor,
			ExcludeArchived: true,
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, cs...)
		if next == "" {
			break
		}
		nextCursor = next
	}

	h.channelsCache.Set(cacheKey, channels, ttlcache.DefaultTTL)
	return channels, nil
}

func (h *SlackRepository) GetChannelByName(ctx context.Context, name string) (*slack.Channel, error) {
	channels, err := h.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		if c.Name == strings.TrimPrefix(name, "#") {
			return &c, nil
		}
	}
	return nil, ErrSlackNotFound
}

func (h *SlackRepository) GetUserByID(ctx context.Context, id string) (*slack.User, error) {
	if u := h.usersCache.Get(id); u != nil {
		return u.Value(), nil
	}
	user, err := h.client.GetUserInfoContext(ctx, id)
	if err != nil {
		return nil, err
	}
	h.usersCache.Set(id, user, ttlcache.DefaultTTL)
	return user, nil
}

func (h *SlackRepository) GetUserPreferredName(user *slack.User) string {
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func (h *SlackRepository) PostMessage(ctx context.Context, channelID string, opts ...slack.MsgOption) (string, string, error) {
	var respChannel, ts string
	err := retry.Retry(retryCount, retryInterval, func() error {
		var err error
		respChannel, ts, err = h.client.PostMessageContext(ctx, channelID, opts...)
		if err != nil {
			slog.Warn("PostMessage", slog.Any("channelID", channelID), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to PostMessage", slog.Any("err", err))
	}
	return respChannel, ts, err
}

func (h *SlackRepository) PostEphemeral(ctx context.Context, channelID, userID string, opts ...slack.MsgOption) error {
	err := retry.Retry(retryCount, retryInterval, func() error {
		_, err := h.client.PostEphemeralContext(ctx, channelID, userID, opts...)
		if err != nil {
			slog.Warn("PostEphemeral", slog.Any("channelID", channelID), slog.Any("userID", userID), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to PostEphemeral", slog.Any("err", err))
	}
	return err
}

// UpdateMessage overwrites the message at ts. There is no version check: the
// last writer wins.
func (h *SlackRepository) UpdateMessage(ctx context.Context, channelID, ts string, opts ...slack.MsgOption) error {
	err := retry.Retry(retryCount, retryInterval, func() error {
		_, _, _, err := h.client.UpdateMessageContext(ctx, channelID, ts, opts...)
		if err != nil {
			slog.Warn("UpdateMessage", slog.Any("channelID", channelID), slog.Any("ts", ts), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to UpdateMessage", slog.Any("err", err))
	}
	return err
}

func (h *SlackRepository) AddPin(ctx context.Context, channelID, ts string) error {
	err := retry.Retry(retryCount, retryInterval, func() error {
		err := h.client.AddPinContext(ctx, channelID, slack.NewRefToMessage(channelID, ts))
		if err != nil {
			slog.Warn("AddPin", slog.Any("channelID", channelID), slog.Any("ts", ts), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to AddPin", slog.Any("err", err))
	}
	return err
}

func (h *SlackRepository) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	err := retry.Retry(retryCount, retryInterval, func() error {
		_, err := h.client.OpenViewContext(ctx, triggerID, view)
		if err != nil {
			slog.Warn("OpenView", slog.Any("triggerID", triggerID), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to OpenView", slog.Any("err", err))
	}
	return err
}

func (h *SlackRepository) CreateConversation(ctx context.Context, params slack.CreateConversationParams) (*slack.Channel, error) {
	var channel *slack.Channel
	err := retry.Retry(3, retryInterval, func() error {
		var err error
		channel, err = h.client.CreateConversationContext(ctx, params)
		if err != nil {
			slog.Warn("CreateConversation", slog.Any("params", params), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to CreateConversation", slog.Any("err", err))
	}
	return channel, err
}

func (h *SlackRepository) InviteUsersToConversation(ctx context.Context, channelID string, users ...string) error {
	err := retry.Retry(retryCount, retryInterval, func() error {
		_, err := h.client.InviteUsersToConversationContext(ctx, channelID, users...)
		if err != nil {
			slog.Warn("InviteUsersToConversation", slog.Any("channelID", channelID), slog.Any("users", users), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to InviteUsersToConversation", slog.Any("err", err))
	}
	return err
}

func (h *SlackRepository) UploadFile(ctx context.Context, channelID, filename, title, content string) (string, error) {
	f, err := h.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channelID,
		Filename: filename,
		Title:    title,
		AltTxt:   title,
		Content:  content,
		FileSize: len(content),
	})
	if err != nil {
		return "", err
	}
	return f.ID, nil
}
