// Package chat runs conversation turns: it records the user message, asks the
// completion endpoint for a reply, and renders the reply into a view.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/iksnae/xerochat/internal/reveal"
)

// Markers shown in a reply slot instead of a reply
const (
	ErrorPrefix      = "❌ Error: "
	NoResponseMarker = "(No response)"
)

// State is the phase of the current turn
type State int

const (
	Idle State = iota
	AwaitingReply
	Rendering
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReply:
		return "awaiting-reply"
	case Rendering:
		return "rendering"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Completer sends a conversation to the endpoint
type Completer interface {
	Complete(ctx context.Context, model string, history []internal.Message) (*completion.Reply, error)
}

// View displays a conversation
type View interface {
	// Clear removes every displayed message
	Clear()
	// ShowEmptyState is displayed when there is no active session
	ShowEmptyState()
	ShowMessage(role internal.Role, out render.Output)
	// Placeholder adds an assistant reply slot identified by key
	Placeholder(key string) Slot
}

// Slot is a reply placeholder. Revealed text arrives through the Sink methods
// and is discarded by Replace.
type Slot interface {
	reveal.Sink
	Loading()
	// Revealing reports whether text appended during a reveal is shown
	Revealing() bool
	Replace(out render.Output)
	ShowError(msg string)
	ShowEmpty()
}

// TurnResult describes a finished turn
type TurnResult struct {
	SessionID string
	State     State
	Reply     internal.Normalized
	Output    render.Output
	Empty     bool
}

// Controller drives turns against the active session
type Controller struct {
	store      *internal.Store
	settings   *internal.SettingsManager
	pipeline   *render.Pipeline
	client     Completer
	view       View
	normalizer *internal.Normalizer
	scheduler  *reveal.Scheduler
	composer   *internal.Composer
	model      string

	turn  sync.Mutex // held for the whole of a turn
	mu    sync.Mutex
	state State
}

// Option configures a Controller
type Option func(*Controller)

// WithComposer shares an attachment composer with the caller
func WithComposer(c *internal.Composer) Option {
	return func(ctl *Controller) { ctl.composer = c }
}

// WithScheduler replaces the reveal scheduler
func WithScheduler(s *reveal.Scheduler) Option {
	return func(ctl *Controller) { ctl.scheduler = s }
}

// WithFallbackModel sets the model used for sessions that have none
func WithFallbackModel(model string) Option {
	return func(ctl *Controller) { ctl.model = model }
}

// NewController wires a controller. The reveal pace follows the settings.
func NewController(store *internal.Store, settings *internal.SettingsManager, pipeline *render.Pipeline, client Completer, view View, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		settings:   settings,
		pipeline:   pipeline,
		client:     client,
		view:       view,
		normalizer: internal.NewNormalizer(),
		composer:   internal.NewComposer(),
		model:      internal.DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = reveal.NewScheduler(settings.Applied().RevealInterval, reveal.DefaultStep)
	}
	settings.OnApply(func(a internal.Applied) {
		c.scheduler.SetInterval(a.RevealInterval)
	})
	return c
}

// Composer returns the attachment staging area
func (c *Controller) Composer() *internal.Composer {
	return c.composer
}

// State returns the phase of the current turn
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Send runs one turn with text and any staged attachments. Empty input and a
// missing active session are rejected before anything is written or sent.
// A failed request is reported in the reply slot and returned; the user
// message stays recorded and no assistant message is added.
func (c *Controller) Send(ctx context.Context, text string) (*TurnResult, error) {
	c.turn.Lock()
	defer c.turn.Unlock()

	text = strings.TrimSpace(text)
	if text == "" && len(c.composer.Pending()) == 0 {
		return nil, internal.ErrEmptyInput
	}
	sess, ok := c.store.Active()
	if !ok {
		return nil, internal.ErrNoActiveSession
	}
	id := sess.ID
	model := sess.Model
	if model == "" {
		model = c.model
	}

	user := internal.Message{Role: internal.RoleUser, Content: internal.BuildUserContent(text, c.composer.Take())}
	c.store.Append(id, user)
	c.view.ShowMessage(internal.RoleUser, c.RenderMessage(user))

	sess, ok = c.store.Get(id)
	if !ok {
		return nil, internal.ErrSessionNotFound
	}
	key := fmt.Sprintf("%s/%d", id, len(sess.Messages))
	slot := c.view.Placeholder(key)
	slot.Loading()
	c.setState(AwaitingReply)
	defer c.setState(Idle)

	reply, err := c.client.Complete(ctx, model, sess.Messages)
	if err != nil {
		c.setState(Failed)
		internal.LogDebug("Turn failed for session %s: %v", id, err)
		slot.ShowError(ErrorPrefix + err.Error())
		return &TurnResult{SessionID: id, State: Failed}, err
	}

	norm := c.normalizer.NormalizeRaw(reply.Content)
	if len(norm.Reasoning) > 0 {
		internal.LogDebug("Reasoning for session %s:\n%s", id, strings.Join(norm.Reasoning, "\n\n---\n\n"))
	}
	if norm.Empty() {
		internal.LogDebug("Empty reply body: %s", string(reply.Body))
		slot.ShowEmpty()
		return &TurnResult{SessionID: id, State: Idle, Reply: norm, Empty: true}, nil
	}

	c.setState(Rendering)
	out := c.revealAndRender(ctx, key, norm.Display, slot)

	if !c.store.Append(id, internal.Message{Role: internal.RoleAssistant, Content: norm.Persisted}) {
		internal.LogWarn("Session %s disappeared before its reply arrived", id)
	}
	return &TurnResult{SessionID: id, State: Idle, Reply: norm, Output: out}, nil
}

// revealAndRender reveals display into slot when the typewriter is on and the
// slot can show it, then replaces the revealed text with the rendered reply
func (c *Controller) revealAndRender(ctx context.Context, key, display string, slot Slot) render.Output {
	if c.settings.Applied().Typewriter && slot.Revealing() {
		task := c.scheduler.Start(ctx, key, display, slot)
		if err := task.Wait(ctx); err != nil {
			internal.LogDebug("Reveal for %s ended early after %d characters: %v", key, task.Written(), err)
		}
	}
	out := c.pipeline.Render(display, true)
	slot.Replace(out)
	return out
}

// RenderMessage renders a stored message for display. Assistant messages are
// Markdown; user messages are Markdown only when the setting asks for it.
func (c *Controller) RenderMessage(m internal.Message) render.Output {
	display := c.normalizer.DisplayText(m.Content)
	switch m.Role {
	case internal.RoleAssistant:
		return c.pipeline.Render(display, true)
	case internal.RoleUser:
		return c.pipeline.Render(display, c.settings.Applied().UserMarkdown)
	}
	return c.pipeline.Render(display, false)
}

// ShowActive redraws the active session, or the empty state when there is none
func (c *Controller) ShowActive() {
	c.view.Clear()
	sess, ok := c.store.Active()
	if !ok {
		c.view.ShowEmptyState()
		return
	}
	for _, m := range sess.Messages {
		c.view.ShowMessage(m.Role, c.RenderMessage(m))
	}
}

// NewSession creates a session, makes it active, and shows it
func (c *Controller) NewSession(name string) *internal.Session {
	sess := c.store.Create(name)
	c.ShowActive()
	return sess
}

// Switch activates the session matching ref and shows it
func (c *Controller) Switch(ref string) (*internal.Session, error) {
	sess, ok := c.store.Resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", internal.ErrSessionNotFound, ref)
	}
	c.store.SetActive(sess.ID)
	c.ShowActive()
	return sess, nil
}

// DeleteActive deletes the active session and shows whichever one replaces it
func (c *Controller) DeleteActive() error {
	id := c.store.ActiveID()
	if id == "" {
		return internal.ErrNoActiveSession
	}
	c.store.Delete(id)
	c.ShowActive()
	return nil
}

// ClearActive removes every message from the active session
func (c *Controller) ClearActive() error {
	id := c.store.ActiveID()
	if id == "" {
		return internal.ErrNoActiveSession
	}
	c.store.Clear(id)
	c.ShowActive()
	return nil
}

// SetModel selects the model for the active session's next requests
func (c *Controller) SetModel(model string) error {
	id := c.store.ActiveID()
	if id == "" {
		return internal.ErrNoActiveSession
	}
	c.store.SetModel(id, strings.TrimSpace(model))
	return nil
}

// CodeBlocks returns the code blocks of the active session's assistant
// messages, oldest first
func (c *Controller) CodeBlocks() []string {
	sess, ok := c.store.Active()
	if !ok {
		return nil
	}
	var blocks []string
	for _, m := range sess.Messages {
		if m.Role != internal.RoleAssistant {
			continue
		}
		blocks = append(blocks, render.ExtractCodeBlocks(c.RenderMessage(m).HTML)...)
	}
	return blocks
}
