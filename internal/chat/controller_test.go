package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/iksnae/xerochat/internal/reveal"
	"github.com/iksnae/xerochat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlot struct {
	mu       sync.Mutex
	key      string
	loading  bool
	revealed strings.Builder
	replaced *render.Output
	errMsg   string
	empty    bool
	hidden   bool
}

func (s *fakeSlot) AppendText(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed.WriteString(chunk)
}

func (s *fakeSlot) AtBottom() bool  { return true }
func (s *fakeSlot) ScrollToBottom() {}
func (s *fakeSlot) Revealing() bool { return !s.hidden }

func (s *fakeSlot) Loading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
}

func (s *fakeSlot) Replace(out render.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = &out
}

func (s *fakeSlot) ShowError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

func (s *fakeSlot) ShowEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.empty = true
}

type shown struct {
	role internal.Role
	out  render.Output
}

type fakeView struct {
	messages   []shown
	slots      []*fakeSlot
	emptyState bool
	clears     int
	hidden     bool
}

func (v *fakeView) Clear() {
	v.clears++
	v.messages = nil
	v.emptyState = false
}

func (v *fakeView) ShowEmptyState() { v.emptyState = true }

func (v *fakeView) ShowMessage(role internal.Role, out render.Output) {
	v.messages = append(v.messages, shown{role, out})
}

func (v *fakeView) Placeholder(key string) Slot {
	s := &fakeSlot{key: key, hidden: v.hidden}
	v.slots = append(v.slots, s)
	return s
}

func (v *fakeView) lastSlot() *fakeSlot {
	return v.slots[len(v.slots)-1]
}

type call struct {
	model   string
	history []internal.Message
}

type fakeCompleter struct {
	calls   []call
	replies []string
	err     error
	delay   time.Duration
	echo    bool // reply "reply to <last message>"
}

func (f *fakeCompleter) Complete(_ context.Context, model string, history []internal.Message) (*completion.Reply, error) {
	f.calls = append(f.calls, call{model: model, history: history})
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.echo {
		raw, _ := json.Marshal("reply to " + history[len(history)-1].Content.Text)
		return &completion.Reply{Content: raw, Status: http.StatusOK}, nil
	}
	if len(f.replies) == 0 {
		return &completion.Reply{Status: http.StatusOK}, nil
	}
	raw := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return &completion.Reply{Content: json.RawMessage(raw), Status: http.StatusOK}, nil
}

type harness struct {
	ctl      *Controller
	store    *internal.Store
	kv       *internal.MemoryKV
	settings *internal.SettingsManager
	view     *fakeView
	client   *fakeCompleter
}

func newHarness(t *testing.T, typewriter bool, replies ...string) *harness {
	t.Helper()
	store, kv := internal.NewTestStore()
	settings := internal.NewSettingsManager(internal.NewPersistence(kv))
	settings.DarkBackground = func() bool { return true }
	settings.Update(func(s *internal.Settings) {
		s.Typewriter = typewriter
		s.TypeSpeed = internal.MinTypeSpeed
	})
	view := &fakeView{}
	client := &fakeCompleter{replies: replies}
	ctl := NewController(store, settings, render.New(), client, view)
	return &harness{ctl: ctl, store: store, kv: kv, settings: settings, view: view, client: client}
}

func (h *harness) active(t *testing.T) *internal.Session {
	t.Helper()
	sess, ok := h.store.Active()
	require.True(t, ok)
	return sess
}

func TestSend_RendersAndPersistsReply(t *testing.T) {
	h := newHarness(t, false, `"Hi **there**"`)

	res, err := h.ctl.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, Idle, res.State)
	assert.Contains(t, res.Output.HTML, "<strong>there</strong>")
	assert.NotContains(t, res.Output.HTML, "**")

	sess := h.active(t)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, internal.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "Hello", sess.Messages[0].Content.Text)
	assert.Equal(t, internal.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "Hi **there**", sess.Messages[1].Content.Text)
	assert.Equal(t, "Hi **there**", sess.Preview)

	slot := h.view.lastSlot()
	assert.True(t, slot.loading)
	require.NotNil(t, slot.replaced)
	assert.Equal(t, res.Output, *slot.replaced)
	assert.Equal(t, sess.ID+"/1", slot.key)

	reloaded := internal.NewTestStoreWithKV(h.kv)
	again, ok := reloaded.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.Messages, again.Messages)
}

func TestSend_SendsFullHistoryAndModel(t *testing.T) {
	h := newHarness(t, false, `"one"`, `"two"`)
	require.NoError(t, h.ctl.SetModel("openrouter/some/model"))

	_, err := h.ctl.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = h.ctl.Send(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, h.client.calls, 2)
	assert.Equal(t, "openrouter/some/model", h.client.calls[1].model)
	assert.Len(t, h.client.calls[0].history, 1)
	assert.Len(t, h.client.calls[1].history, 3)
}

func TestSend_Ordering(t *testing.T) {
	h := newHarness(t, false, `"a1"`, `"a2"`, `"a3"`)
	for _, q := range []string{"u1", "u2", "u3"} {
		_, err := h.ctl.Send(context.Background(), q)
		require.NoError(t, err)
	}

	var got []string
	for _, m := range h.active(t).Messages {
		got = append(got, string(m.Role)+":"+m.Content.Text)
	}
	assert.Equal(t, []string{"user:u1", "assistant:a1", "user:u2", "assistant:a2", "user:u3", "assistant:a3"}, got)
}

func TestSend_ConcurrentTurnsDoNotInterleave(t *testing.T) {
	h := newHarness(t, false)
	h.client.echo = true
	h.client.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for _, q := range []string{"one", "two"} {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			_, err := h.ctl.Send(context.Background(), q)
			assert.NoError(t, err)
		}(q)
	}
	wg.Wait()

	msgs := h.active(t).Messages
	require.Len(t, msgs, 4)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, internal.RoleUser, msgs[i].Role)
		assert.Equal(t, internal.RoleAssistant, msgs[i+1].Role)
		assert.Equal(t, "reply to "+msgs[i].Content.Text, msgs[i+1].Content.Text)
	}
	assert.Equal(t, Idle, h.ctl.State())
}

func TestSend_RejectsEmptyInput(t *testing.T) {
	h := newHarness(t, false, `"x"`)
	before, err := h.kv.Get(internal.SessionsKey)
	require.NoError(t, err)

	_, err = h.ctl.Send(context.Background(), "   \n")
	assert.ErrorIs(t, err, internal.ErrEmptyInput)

	after, err := h.kv.Get(internal.SessionsKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, h.client.calls)
	assert.Empty(t, h.view.slots)
}

func TestSend_RejectsWithoutActiveSession(t *testing.T) {
	h := newHarness(t, false, `"x"`)
	require.NoError(t, h.ctl.DeleteActive())
	assert.True(t, h.view.emptyState)

	_, err := h.ctl.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, internal.ErrNoActiveSession)
	assert.Empty(t, h.client.calls)
	assert.Zero(t, h.store.Len())
}

func TestSend_ServerFailureKeepsOnlyUserMessage(t *testing.T) {
	h := newHarness(t, false)
	h.client.err = &completion.ServerError{Status: 429, Message: "rate limited"}

	res, err := h.ctl.Send(context.Background(), "Hello")
	require.Error(t, err)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, Idle, h.ctl.State())
	assert.Equal(t, "❌ Error: rate limited", h.view.lastSlot().errMsg)

	sess := h.active(t)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, internal.RoleUser, sess.Messages[0].Role)
}

func TestSend_EmptyReply(t *testing.T) {
	for _, raw := range []string{"", `""`, `"<think>only thinking</think>"`, `[]`} {
		h := newHarness(t, false)
		if raw != "" {
			h.client.replies = []string{raw}
		}

		res, err := h.ctl.Send(context.Background(), "Hello")
		require.NoError(t, err, "reply %q", raw)
		assert.True(t, res.Empty, "reply %q", raw)
		assert.True(t, h.view.lastSlot().empty, "reply %q", raw)
		assert.Len(t, h.active(t).Messages, 1, "reply %q", raw)
	}
}

func TestSend_StripsReasoning(t *testing.T) {
	h := newHarness(t, false, `"<think>plan it</think>\nAnswer"`)

	res, err := h.ctl.Send(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan it"}, res.Reply.Reasoning)
	assert.NotContains(t, res.Output.HTML, "plan it")
	assert.Equal(t, "Answer", h.active(t).Messages[1].Content.Text)
}

func TestSend_StructuredReplyPersistsUnchanged(t *testing.T) {
	raw := `[{"type":"text","text":"A"},{"type":"image_url","image_url":{"url":"u"}}]`
	h := newHarness(t, false, raw)

	res, err := h.ctl.Send(context.Background(), "q")
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Display, "A")
	assert.Contains(t, res.Reply.Display, "![image](u)")

	stored, err := json.Marshal(h.active(t).Messages[1].Content)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(stored))
}

func TestSend_AttachesStagedImages(t *testing.T) {
	h := newHarness(t, false, `"nice cat"`)
	h.ctl.Composer().Stage(internal.Attachment{Name: "cat.png", MediaType: "image/png", DataURL: "data:image/png;base64,AAAA"})

	_, err := h.ctl.Send(context.Background(), "look")
	require.NoError(t, err)
	assert.Empty(t, h.ctl.Composer().Pending())

	user := h.client.calls[0].history[0]
	require.True(t, user.Content.IsStructured())
	require.Len(t, user.Content.Parts, 2)
	assert.Equal(t, "look", user.Content.Parts[0].Text)
	assert.Equal(t, "data:image/png;base64,AAAA", user.Content.Parts[1].ImageURL.URL)
}

func TestSend_ImageOnly(t *testing.T) {
	h := newHarness(t, false, `"a picture"`)
	h.ctl.Composer().Stage(internal.Attachment{Name: "x.png", MediaType: "image/png", DataURL: "data:image/png;base64,AAAA"})

	_, err := h.ctl.Send(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, internal.ImagePreview, h.active(t).Messages[0].PreviewText())
}

func TestSend_TypewriterRevealsThenReplaces(t *testing.T) {
	h := newHarness(t, true, `"Hi **there**"`)

	_, err := h.ctl.Send(context.Background(), "Hello")
	require.NoError(t, err)

	slot := h.view.lastSlot()
	assert.Equal(t, "Hi **there**", slot.revealed.String())
	require.NotNil(t, slot.replaced)
	assert.Contains(t, slot.replaced.HTML, "<strong>there</strong>")
}

func TestSend_SkipsRevealWhenSlotCannotShowIt(t *testing.T) {
	h := newHarness(t, true, `"`+strings.Repeat("x", 300)+`"`)
	h.view.hidden = true
	h.settings.Update(func(s *internal.Settings) { s.TypeSpeed = internal.MaxTypeSpeed })

	start := time.Now()
	_, err := h.ctl.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	slot := h.view.lastSlot()
	assert.Empty(t, slot.revealed.String())
	require.NotNil(t, slot.replaced)
	assert.Contains(t, slot.replaced.Source, strings.Repeat("x", 300))
}

func TestSend_OverHTTP(t *testing.T) {
	srv := testutil.NewCompletionServer(t,
		testutil.ReplyWith("first"),
		testutil.CannedResponse{Status: http.StatusBadGateway, Body: `{"error":"upstream timeout"}`},
	)
	store, kv := internal.NewTestStore()
	settings := internal.NewSettingsManager(internal.NewPersistence(kv))
	settings.DarkBackground = func() bool { return false }
	settings.Update(func(s *internal.Settings) { s.Typewriter = false })
	view := &fakeView{}
	ctl := NewController(store, settings, render.New(), completion.New(srv.URL), view)

	_, err := ctl.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = ctl.Send(context.Background(), "two")

	var se *completion.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "❌ Error: upstream timeout", view.lastSlot().errMsg)
	sess, _ := store.Active()
	assert.Len(t, sess.Messages, 3)
}

func TestRenderMessage_UserMarkdownSetting(t *testing.T) {
	h := newHarness(t, false)
	msg := internal.Message{Role: internal.RoleUser, Content: internal.TextContent("**bold**")}

	assert.False(t, h.ctl.RenderMessage(msg).Markdown)
	h.settings.Update(func(s *internal.Settings) { s.UserMarkdown = true })
	assert.Contains(t, h.ctl.RenderMessage(msg).HTML, "<strong>bold</strong>")
}

func TestShowActive(t *testing.T) {
	h := newHarness(t, false, `"reply"`)
	_, err := h.ctl.Send(context.Background(), "hi")
	require.NoError(t, err)

	h.ctl.ShowActive()
	require.Len(t, h.view.messages, 2)
	assert.Equal(t, internal.RoleAssistant, h.view.messages[1].role)

	h.ctl.NewSession("Fresh")
	assert.Empty(t, h.view.messages)
	assert.False(t, h.view.emptyState)

	_, err = h.ctl.Switch("session-1")
	require.NoError(t, err)
	assert.Len(t, h.view.messages, 2)

	_, err = h.ctl.Switch("nope")
	assert.ErrorIs(t, err, internal.ErrSessionNotFound)
}

func TestClearActive(t *testing.T) {
	h := newHarness(t, false, `"reply"`)
	_, err := h.ctl.Send(context.Background(), "hi")
	require.NoError(t, err)

	require.NoError(t, h.ctl.ClearActive())
	assert.Empty(t, h.active(t).Messages)
	assert.Empty(t, h.view.messages)
}

func TestSettingsChangeUpdatesRevealPace(t *testing.T) {
	store, kv := internal.NewTestStore()
	settings := internal.NewSettingsManager(internal.NewPersistence(kv))
	settings.DarkBackground = func() bool { return false }
	sched := reveal.NewScheduler(30*time.Millisecond, 1)
	NewController(store, settings, render.New(), &fakeCompleter{}, &fakeView{}, WithScheduler(sched))

	_, err := settings.Set("typeSpeed", "3")
	require.NoError(t, err)
	assert.Equal(t, internal.MinTypeSpeed, settings.Current().TypeSpeed)
	assert.Equal(t, reveal.MinInterval, sched.Interval())
}

func TestCodeBlocks(t *testing.T) {
	h := newHarness(t, false, "\"Try:\\n\\n```go\\nfmt.Println(1)\\n```\"")
	_, err := h.ctl.Send(context.Background(), "show code")
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt.Println(1)"}, h.ctl.CodeBlocks())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "awaiting-reply", AwaitingReply.String())
	assert.Equal(t, "rendering", Rendering.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
