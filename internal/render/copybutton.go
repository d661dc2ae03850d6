package render

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// Copy button labels
const (
	CopyLabel   = "Copy"
	CopiedLabel = "Copied!"
	FailedLabel = "Failed"
)

// CopyFeedbackInterval is how long the success or failure label stays before reverting
const CopyFeedbackInterval = 1200 * time.Millisecond

// Clipboard writes text to a clipboard
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard is the operating system clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// CopyButton is the copy affordance attached to one code block. Clicking it
// shows Copied! or Failed, then reverts to Copy after the feedback interval.
type CopyButton struct {
	mu       sync.Mutex
	clip     Clipboard
	label    string
	interval time.Duration
	revert   *time.Timer
	gen      int
	onChange func(label string)
}

// NewCopyButton creates a button writing to clip
func NewCopyButton(clip Clipboard) *CopyButton {
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &CopyButton{clip: clip, label: CopyLabel, interval: CopyFeedbackInterval}
}

// SetInterval overrides the feedback interval
func (b *CopyButton) SetInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interval = d
}

// OnChange registers a callback invoked on every label change
func (b *CopyButton) OnChange(fn func(label string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Label returns the current label
func (b *CopyButton) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

// Click copies code and starts the feedback cycle. A click during feedback
// restarts the cycle.
func (b *CopyButton) Click(code string) error {
	err := b.clip.WriteAll(code)
	label := CopiedLabel
	if err != nil {
		label = FailedLabel
	}

	b.mu.Lock()
	if b.revert != nil {
		b.revert.Stop()
	}
	b.label = label
	b.gen++
	gen := b.gen
	b.revert = time.AfterFunc(b.interval, func() { b.reset(gen) })
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(label)
	}
	return err
}

func (b *CopyButton) reset(gen int) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.label = CopyLabel
	b.revert = nil
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn(CopyLabel)
	}
}
