package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyama86/fishstick/domain/entity"
	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/handler"
	"github.com/pyama86/fishstick/presentation/blocks"
)

// ------------------------
// Mock Slack workspace
// ------------------------
type sentMessage struct {
	channel   string
	ts        string
	text      string
	threadTS  string
	broadcast bool
	blocks    []slack.Block
}

type ephemeral struct {
	channel string
	user    string
	text    string
}

type mockSlackRepo struct {
	mu         sync.Mutex
	seq        int
	channels   map[string]*slack.Channel
	messages   map[string]map[string]*slack.Message
	pins       map[string][]string
	posts      []sentMessage
	updates    []sentMessage
	ephemerals []ephemeral
	views      []slack.ModalViewRequest
	invites    map[string][]string
	uploads    []string
	flushed    int
}

func newMockSlackRepo() *mockSlackRepo {
	return &mockSlackRepo{
		channels: map[string]*slack.Channel{},
		messages: map[string]map[string]*slack.Message{},
		pins:     map[string][]string{},
		invites:  map[string][]string{},
	}
}

func (m *mockSlackRepo) addChannel(id, name string, private bool) *slack.Channel {
	c := &slack.Channel{}
	c.ID = id
	c.Name = name
	c.IsPrivate = private
	c.Created = slack.JSONTime(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Unix())
	m.channels[id] = c
	m.messages[id] = map[string]*slack.Message{}
	return c
}

func decodeOptions(channelID string, opts []slack.MsgOption) sentMessage {
	_, values, _ := slack.UnsafeApplyMsgOptions("", channelID, "", opts...)
	sent := sentMessage{
		channel:   channelID,
		text:      values.Get("text"),
		threadTS:  values.Get("thread_ts"),
		broadcast: values.Get("reply_broadcast") == "true",
	}
	if raw := values.Get("blocks"); raw != "" {
		var b slack.Blocks
		if err := json.Unmarshal([]byte(raw), &b); err == nil {
			sent.blocks = b.BlockSet
		}
	}
	return sent
}

func (m *mockSlackRepo) GetChannelInfo(_ context.Context, channelID string) (*slack.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[channelID]
	if !ok {
		return nil, repository.ErrSlackNotFound
	}
	return c, nil
}

func (m *mockSlackRepo) ListPins(_ context.Context, channelID string) ([]slack.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []slack.Item
	for _, ts := range m.pins[channelID] {
		items = append(items, slack.Item{Type: "message", Channel: channelID, Timestamp: ts})
	}
	return items, nil
}

func (m *mockSlackRepo) GetHistoryAt(_ context.Context, channelID, ts string) (*slack.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[channelID][ts]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (m *mockSlackRepo) GetHistory(_ context.Context, channelID string, limit int) ([]slack.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var history []slack.Message
	for _, msg := range m.messages[channelID] {
		history = append(history, *msg)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Timestamp > history[j].Timestamp })
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (m *mockSlackRepo) ListChannels(_ context.Context) ([]slack.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var channels []slack.Channel
	for _, c := range m.channels {
		channels = append(channels, *c)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return channels, nil
}

func (m *mockSlackRepo) PostMessage(_ context.Context, channelID string, opts ...slack.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	sent := decodeOptions(channelID, opts)
	sent.ts = fmt.Sprintf("%d.%06d", 1735732800+m.seq, m.seq)
	m.posts = append(m.posts, sent)
	if _, ok := m.messages[channelID]; ok {
		m.messages[channelID][sent.ts] = &slack.Message{Msg: slack.Msg{
			Timestamp: sent.ts,
			Text:      sent.text,
			User:      "UBOT",
			BotID:     "BBOT",
			Blocks:    slack.Blocks{BlockSet: sent.blocks},
		}}
	}
	return channelID, sent.ts, nil
}

func (m *mockSlackRepo) PostEphemeral(_ context.Context, channelID, userID string, opts ...slack.MsgOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := decodeOptions(channelID, opts)
	m.ephemerals = append(m.ephemerals, ephemeral{channel: channelID, user: userID, text: sent.text})
	return nil
}

func (m *mockSlackRepo) UpdateMessage(_ context.Context, channelID, ts string, opts ...slack.MsgOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := decodeOptions(channelID, opts)
	sent.ts = ts
	m.updates = append(m.updates, sent)
	msg, ok := m.messages[channelID][ts]
	if !ok {
		return fmt.Errorf("message_not_found")
	}
	msg.Text = sent.text
	msg.Blocks = slack.Blocks{BlockSet: sent.blocks}
	return nil
}

func (m *mockSlackRepo) AddPin(_ context.Context, channelID, ts string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[channelID] = append(m.pins[channelID], ts)
	return nil
}

func (m *mockSlackRepo) GetChannelByName(_ context.Context, name string) (*slack.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, repository.ErrSlackNotFound
}

func (m *mockSlackRepo) CreateConversation(_ context.Context, params slack.CreateConversationParams) (*slack.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("CNEW%d", len(m.channels))
	c := &slack.Channel{}
	c.ID = id
	c.Name = params.ChannelName
	c.IsPrivate = params.IsPrivate
	c.Created = slack.JSONTime(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Unix())
	m.channels[id] = c
	m.messages[id] = map[string]*slack.Message{}
	return c, nil
}

func (m *mockSlackRepo) InviteUsersToConversation(_ context.Context, channelID string, users ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[channelID] = append(m.invites[channelID], users...)
	return nil
}

func (m *mockSlackRepo) OpenView(_ context.Context, _ string, view slack.ModalViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, view)
	return nil
}

func (m *mockSlackRepo) GetUserByID(_ context.Context, id string) (*slack.User, error) {
	return &slack.User{ID: id, Name: "name-" + id}, nil
}

func (m *mockSlackRepo) GetUserPreferredName(user *slack.User) string {
	return user.Name
}

func (m *mockSlackRepo) UploadFile(_ context.Context, channelID, filename, _, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, channelID+"/"+filename+":"+content)
	return "F1", nil
}

func (m *mockSlackRepo) FlushChannelCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed++
}

func (m *mockSlackRepo) postsTo(channelID string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, p := range m.posts {
		if p.channel == channelID {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockSlackRepo) lastEphemeral() ephemeral {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ephemerals) == 0 {
		return ephemeral{}
	}
	return m.ephemerals[len(m.ephemerals)-1]
}

type fakeExporter struct {
	title    string
	markdown string
}

func (f *fakeExporter) ExportTimeline(_ context.Context, title, markdown string) (string, error) {
	f.title = title
	f.markdown = markdown
	return "https://example.atlassian.net/wiki/spaces/OPS/pages/1", nil
}

// ------------------------
// fixtures
// ------------------------
var testNow = time.Date(2025, 1, 1, 13, 30, 0, 0, time.UTC)

func testConfig() *repository.Config {
	return &repository.Config{Incident: repository.IncidentConfig{
		ChannelPrefix:        "incident_",
		TeamUpdateChannelID:  "CTEAM",
		HistoryLimit:         1000,
		ReminderNotification: "here",
	}}
}

type fixture struct {
	slack     *mockSlackRepo
	incidents *repository.IncidentRepository
	commands  *handler.CommandHandler
	callbacks *handler.CallbackHandler
	exporter  *fakeExporter
}

func newFixture(t *testing.T, withExporter bool) *fixture {
	t.Cleanup(handler.SetTimeNow(func() time.Time { return testNow }))
	t.Cleanup(handler.SetIntN(func(int) int { return 0 }))

	ctx := context.Background()
	cfg := testConfig()
	repo := newMockSlackRepo()
	repo.addChannel("CTEAM", "team-updates", false)
	repo.addChannel("CGEN", "general", false)
	incidents := repository.NewIncidentRepository(repo, cfg.Incident).
		WithClock(func() time.Time { return testNow })

	f := &fixture{slack: repo, incidents: incidents}
	var exporter repository.TimelineExporter
	if withExporter {
		f.exporter = &fakeExporter{}
		exporter = f.exporter
	}
	f.commands = handler.NewCommandHandler(ctx, repo, incidents, exporter, cfg)
	f.callbacks = handler.NewCallbackHandler(ctx, repo, incidents, cfg)
	return f
}

func startSubmission(userID, issue string, options ...string) *slack.InteractionCallback {
	var selected []slack.OptionBlockObject
	for _, o := range options {
		selected = append(selected, slack.OptionBlockObject{Value: o})
	}
	cb := &slack.InteractionCallback{Type: slack.InteractionTypeViewSubmission}
	cb.User.ID = userID
	cb.User.Name = "user-" + userID
	cb.View.CallbackID = blocks.StartIncidentCallbackID
	cb.View.PrivateMetadata = "CGEN"
	cb.View.State = &slack.ViewState{Values: map[string]map[string]slack.BlockAction{
		blocks.IssueBlockID:           {blocks.IssueActionID: {Value: issue}},
		blocks.IncidentOptionsBlockID: {blocks.IncidentOptionsActionID: {SelectedOptions: selected}},
	}}
	return cb
}

func command(channelID, userID, text string) *slack.SlashCommand {
	return &slack.SlashCommand{
		Command:   "/incident",
		ChannelID: channelID,
		UserID:    userID,
		UserName:  "user-" + userID,
		Text:      text,
		TriggerID: "trigger",
	}
}

// startIncident runs the start modal submission and returns the new channel.
func (f *fixture) startIncident(t *testing.T, options ...string) string {
	require.NoError(t, f.callbacks.Handle(startSubmission("U1", "Checkout returns 502", options...)))
	c, err := f.slack.GetChannelByName(context.Background(), "incident_amber_badger")
	require.NoError(t, err)
	return c.ID
}

// ------------------------
// command.go
// ------------------------
func TestCommandStartOpensModal(t *testing.T) {
	f := newFixture(t, false)
	for _, text := range []string{"", "start", "  START "} {
		require.NoError(t, f.commands.Handle(command("CGEN", "U1", text)))
	}
	require.Len(t, f.slack.views, 3)
	assert.Equal(t, blocks.StartIncidentCallbackID, f.slack.views[0].CallbackID)
	assert.Equal(t, "CGEN", f.slack.views[0].PrivateMetadata)
}

func TestCommandOutsideIncident(t *testing.T) {
	f := newFixture(t, false)
	for _, text := range []string{"ic", "update", "log something", "timeline", "resolve", "export"} {
		require.NoError(t, f.commands.Handle(command("CGEN", "U1", text)))
		assert.Equal(t, blocks.NotIncidentChannelText, f.slack.lastEphemeral().text, text)
	}
	assert.Empty(t, f.slack.postsTo("CGEN"))
}

func TestCommandHelpAndUnknown(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.commands.Handle(command("CGEN", "U1", "help")))
	assert.Equal(t, blocks.HelpText, f.slack.lastEphemeral().text)

	require.NoError(t, f.commands.Handle(command("CGEN", "U1", "dance")))
	assert.Contains(t, f.slack.lastEphemeral().text, "Unknown command: `dance`")
}

func TestCommandIncidentCommander(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)
	ctx := context.Background()

	require.NoError(t, f.commands.Handle(command(ch, "U2", "ic")))
	incident := f.incidents.FindIncidentByChannel(ctx, ch)
	require.NotNil(t, incident)
	assert.Equal(t, "U2", incident.IncidentCommanderID)
	posts := f.slack.postsTo(ch)
	assert.Equal(t, "🎯 <@U2> is now the Incident Commander!", posts[len(posts)-1].text)

	require.NoError(t, f.commands.Handle(command(ch, "U2", "ic")))
	assert.Equal(t, blocks.AlreadyCommanderText, f.slack.lastEphemeral().text)

	require.NoError(t, f.commands.Handle(command(ch, "U3", "ic")))
	incident = f.incidents.FindIncidentByChannel(ctx, ch)
	assert.Equal(t, "U3", incident.IncidentCommanderID)
	posts = f.slack.postsTo(ch)
	assert.Equal(t, "🎯 Incident Commander handoff: <@U2> → <@U3>", posts[len(posts)-1].text)

	// the team link survives the rewrite
	assert.NotEmpty(t, incident.TeamMessageTS)
	assert.Equal(t, "Checkout returns 502", incident.Issue)
}

func TestCommandLog(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)

	require.NoError(t, f.commands.Handle(command(ch, "U1", "log")))
	assert.Equal(t, blocks.LogUsageText, f.slack.lastEphemeral().text)

	require.NoError(t, f.commands.Handle(command(ch, "U1", "log restarted the primary db")))
	_, tl, err := f.incidents.BuildTimeline(context.Background(), ch)
	require.NoError(t, err)

	var logged []entity.TimelineEvent
	for _, ev := range tl.Events {
		if ev.Type == entity.TimelineEventLog {
			logged = append(logged, ev)
		}
	}
	require.Len(t, logged, 1)
	assert.Equal(t, "<@U1>: restarted the primary db", logged[0].Text)
	assert.Equal(t, "U1", logged[0].User)
	assert.Equal(t, float64(testNow.Unix()), logged[0].Timestamp)
}

func TestCommandResolve(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)

	require.NoError(t, f.commands.Handle(command(ch, "U2", "resolve")))
	incident := f.incidents.FindIncidentByChannel(context.Background(), ch)
	require.NotNil(t, incident)
	assert.True(t, incident.IsResolved())
	assert.True(t, testNow.Equal(incident.ClosedAt))

	posts := f.slack.postsTo(ch)
	assert.Equal(t, "✅ Incident resolved by <@U2> after 1h 30m", posts[len(posts)-1].text)

	require.NoError(t, f.commands.Handle(command(ch, "U2", "resolve")))
	assert.Equal(t, blocks.AlreadyResolvedText, f.slack.lastEphemeral().text)
}

func TestCommandUpdate(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)

	require.NoError(t, f.commands.Handle(command(ch, "U1", "update")))
	require.Len(t, f.slack.views, 1)
	assert.Equal(t, blocks.UpdateIncidentCallbackID, f.slack.views[0].CallbackID)
	assert.Equal(t, ch, f.slack.views[0].PrivateMetadata)

	private := newFixture(t, false)
	pch := private.startIncident(t, blocks.OptionPrivate)
	require.NoError(t, private.commands.Handle(command(pch, "U1", "update")))
	assert.Empty(t, private.slack.views)
	assert.Equal(t, blocks.PrivateNoUpdatesText, private.slack.lastEphemeral().text)
}

func TestCommandTimeline(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)
	require.NoError(t, f.commands.Handle(command(ch, "U2", "ic")))

	require.NoError(t, f.commands.Handle(command(ch, "U1", "timeline")))
	e := f.slack.lastEphemeral()
	assert.Equal(t, "U1", e.user)
	assert.Contains(t, e.text, "*Incident Timeline Report*")
	assert.Contains(t, e.text, "*Channel:* incident_amber_badger")
	assert.Contains(t, e.text, "🚨 Incident started by <@U1>")
	assert.Contains(t, e.text, "🎯 <@U2> is now the Incident Commander!")
	assert.Contains(t, e.text, "*Duration:* 1h 30m")
}

func TestCommandExport(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)

	require.NoError(t, f.commands.Handle(command(ch, "U1", "export")))
	require.Len(t, f.slack.uploads, 1)
	assert.True(t, strings.HasPrefix(f.slack.uploads[0], ch+"/incident_amber_badger-timeline.md:# incident_amber_badger"))
	assert.Contains(t, f.slack.uploads[0], "@name-U1")
	assert.Equal(t, blocks.TimelineUploadedText, f.slack.lastEphemeral().text)

	withConfluence := newFixture(t, true)
	ch = withConfluence.startIncident(t)
	require.NoError(t, withConfluence.commands.Handle(command(ch, "U1", "export")))
	assert.Empty(t, withConfluence.slack.uploads)
	assert.Equal(t, "Incident Timeline: incident_amber_badger (2025-01-01)", withConfluence.exporter.title)
	assert.Contains(t, withConfluence.exporter.markdown, "Checkout returns 502")
	assert.Equal(t, blocks.TimelineExported("https://example.atlassian.net/wiki/spaces/OPS/pages/1"), withConfluence.slack.lastEphemeral().text)
}

// ------------------------
// reminder.go
// ------------------------
func TestReminder(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)
	ctx := context.Background()
	reminder := handler.NewReminder(f.incidents, f.slack, "here")

	before := len(f.slack.postsTo(ch))
	require.NoError(t, reminder.RemindAll(ctx))
	posts := f.slack.postsTo(ch)
	require.Len(t, posts, before+1)
	require.NotEmpty(t, posts[len(posts)-1].blocks)
	section, ok := posts[len(posts)-1].blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(section.Text.Text, "<!here> "))
	assert.Contains(t, section.Text.Text, "*1h 30m*")

	// an incident with a commander is left alone
	require.NoError(t, f.commands.Handle(command(ch, "U2", "ic")))
	before = len(f.slack.postsTo(ch))
	require.NoError(t, reminder.RemindAll(ctx))
	assert.Len(t, f.slack.postsTo(ch), before)
}

// ------------------------
// event.go
// ------------------------
func TestEventHandler_Handle(t *testing.T) {
	f := newFixture(t, false)
	ch := f.startIncident(t)
	events := handler.NewEventHandler(context.Background(), f.slack, f.incidents)

	require.NoError(t, events.Handle(&slackevents.EventsAPIInnerEvent{
		Data: &slackevents.AppMentionEvent{User: "U1", Channel: ch},
	}))
	assert.Equal(t, blocks.MentionInIncidentText, f.slack.lastEphemeral().text)

	require.NoError(t, events.Handle(&slackevents.EventsAPIInnerEvent{
		Data: &slackevents.AppMentionEvent{User: "U1", Channel: "CGEN"},
	}))
	assert.Equal(t, blocks.MentionOutsideIncidentText, f.slack.lastEphemeral().text)

	flushed := f.slack.flushed
	require.NoError(t, events.Handle(&slackevents.EventsAPIInnerEvent{
		Data: &slackevents.ChannelCreatedEvent{},
	}))
	assert.Equal(t, flushed+1, f.slack.flushed)
}

func TestCommandWithoutSummaryMessage(t *testing.T) {
	f := newFixture(t, false)
	f.slack.addChannel("CBARE", "incident_bare_yak", false)

	for _, text := range []string{"resolve", "ic"} {
		require.NoError(t, f.commands.Handle(command("CBARE", "U1", text)))
		assert.Equal(t, blocks.NoSummaryText, f.slack.lastEphemeral().text, text)
	}
	assert.Empty(t, f.slack.postsTo("CBARE"))
	assert.Empty(t, f.slack.updates)

	incident := f.incidents.FindIncidentByChannel(context.Background(), "CBARE")
	require.NotNil(t, incident)
	assert.False(t, incident.IsResolved())
}
