package render

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func TestCopyButton_SuccessReverts(t *testing.T) {
	clip := &fakeClipboard{}
	b := NewCopyButton(clip)
	b.SetInterval(20 * time.Millisecond)

	var mu sync.Mutex
	var labels []string
	b.OnChange(func(l string) {
		mu.Lock()
		labels = append(labels, l)
		mu.Unlock()
	})

	assert.Equal(t, CopyLabel, b.Label())
	require.NoError(t, b.Click("fmt.Println()"))
	assert.Equal(t, CopiedLabel, b.Label())
	assert.Equal(t, "fmt.Println()", clip.text)

	assert.Eventually(t, func() bool { return b.Label() == CopyLabel }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{CopiedLabel, CopyLabel}, labels)
}

func TestCopyButton_Failure(t *testing.T) {
	b := NewCopyButton(&fakeClipboard{err: errors.New("no clipboard")})
	b.SetInterval(20 * time.Millisecond)

	assert.Error(t, b.Click("x"))
	assert.Equal(t, FailedLabel, b.Label())
	assert.Eventually(t, func() bool { return b.Label() == CopyLabel }, time.Second, 5*time.Millisecond)
}

func TestCopyButton_ClickRestartsFeedback(t *testing.T) {
	b := NewCopyButton(&fakeClipboard{})
	b.SetInterval(time.Hour)
	require.NoError(t, b.Click("a"))
	b.SetInterval(20 * time.Millisecond)
	require.NoError(t, b.Click("b"))
	assert.Eventually(t, func() bool { return b.Label() == CopyLabel }, time.Second, 5*time.Millisecond)
}
