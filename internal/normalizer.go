package internal

import (
	"encoding/json"
	"strings"
)

// Normalized is a reply reduced to what the client persists and what it displays
type Normalized struct {
	// Persisted is the content stored in the session.
	// Plain text has reasoning removed; structured content is kept as received.
	Persisted Content
	// Display is the text handed to the renderer, with reasoning removed
	Display string
	// Reasoning holds the removed reasoning blocks, kept for diagnostics only
	Reasoning []string
}

// Empty reports whether there is nothing to display
func (n Normalized) Empty() bool {
	return strings.TrimSpace(n.Display) == ""
}

// Normalizer converts raw reply content into persisted and displayed forms
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeRaw decodes a JSON content value (string or array of parts) and normalizes it.
// Missing, null, or undecodable content normalizes to empty.
func (n *Normalizer) NormalizeRaw(raw json.RawMessage) Normalized {
	if len(raw) == 0 {
		return Normalized{Persisted: TextContent("")}
	}
	var c Content
	if err := json.Unmarshal(raw, &c); err != nil {
		LogDebug("Failed to decode reply content: %v", err)
		return Normalized{Persisted: TextContent("")}
	}
	return n.Normalize(c)
}

// Normalize strips reasoning and flattens structured content for display
func (n *Normalizer) Normalize(c Content) Normalized {
	if c.IsStructured() {
		visible, reasoning := SplitReasoning(FlattenParts(c.Parts))
		return Normalized{Persisted: c.Clone(), Display: visible, Reasoning: reasoning}
	}
	if len(c.other) > 0 {
		LogDebug("Reply content has an unsupported shape")
		return Normalized{Persisted: TextContent("")}
	}
	visible, reasoning := SplitReasoning(c.Text)
	return Normalized{Persisted: TextContent(visible), Display: visible, Reasoning: reasoning}
}

// DisplayText returns the text shown for stored content
func (n *Normalizer) DisplayText(c Content) string {
	return StripReasoning(ExtractText(c))
}
