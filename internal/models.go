package internal

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Part types understood by the client
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Content is message content: either a plain string or an ordered list of typed parts.
// The zero value is empty text.
type Content struct {
	Text  string
	Parts []Part // non-nil when the content is structured

	// other holds content of an unrecognized JSON shape so it survives a round trip
	other json.RawMessage
}

// Part is one element of structured content
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`

	// raw is the part exactly as it was decoded, preserved for unknown fields and types
	raw json.RawMessage
}

// ImageURL is the payload of an image_url part
type ImageURL struct {
	URL string `json:"url"`
}

// TextContent returns plain-string content
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent returns structured content made of the given parts
func PartsContent(parts ...Part) Content {
	if parts == nil {
		parts = []Part{}
	}
	return Content{Parts: parts}
}

// TextPart builds a text part
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an image_url part
func ImagePart(url string) Part {
	return Part{Type: PartImageURL, ImageURL: &ImageURL{URL: url}}
}

// IsStructured reports whether the content is a list of parts
func (c Content) IsStructured() bool {
	return c.Parts != nil
}

// IsEmpty reports whether the content carries nothing to display
func (c Content) IsEmpty() bool {
	if c.IsStructured() {
		return len(c.Parts) == 0
	}
	return c.Text == "" && len(c.other) == 0
}

// JoinedText returns the text parts joined by blank lines
func (c Content) JoinedText() string {
	if !c.IsStructured() {
		return c.Text
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// HasImages reports whether any part is an image
func (c Content) HasImages() bool {
	for _, p := range c.Parts {
		if p.Type == PartImageURL && p.ImageURL != nil && p.ImageURL.URL != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the content
func (c Content) Clone() Content {
	if c.Parts != nil {
		parts := make([]Part, len(c.Parts))
		for i, p := range c.Parts {
			parts[i] = p.Clone()
		}
		c.Parts = parts
	}
	if c.other != nil {
		c.other = append(json.RawMessage(nil), c.other...)
	}
	return c
}

// MarshalJSON encodes text as a JSON string and parts as a JSON array
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsStructured() {
		return json.Marshal(c.Parts)
	}
	if len(c.other) > 0 {
		return c.other, nil
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts a string, an array of parts, null, or any other value
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &c.Text)
	case '[':
		var parts []Part
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		c.Parts = PartsContent(parts...).Parts
		return nil
	default:
		c.other = append(json.RawMessage(nil), trimmed...)
		return nil
	}
}

type partFields struct {
	Type     string          `json:"type"`
	Text     json.RawMessage `json:"text"`
	ImageURL json.RawMessage `json:"image_url"`
}

// Clone returns a deep copy of the part
func (p Part) Clone() Part {
	if p.ImageURL != nil {
		u := *p.ImageURL
		p.ImageURL = &u
	}
	if p.raw != nil {
		p.raw = append(json.RawMessage(nil), p.raw...)
	}
	return p
}

// MarshalJSON re-emits a decoded part unchanged; parts built in code are encoded from their fields
func (p Part) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type alias Part
	return json.Marshal(alias(p))
}

// UnmarshalJSON keeps the raw bytes and extracts the fields the client understands.
// A part that is not an object decodes with an empty type and is treated as unknown.
func (p *Part) UnmarshalJSON(data []byte) error {
	*p = Part{raw: append(json.RawMessage(nil), bytes.TrimSpace(data)...)}

	var fields partFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	p.Type = fields.Type

	var text string
	if json.Unmarshal(fields.Text, &text) == nil {
		p.Text = text
	}

	if len(fields.ImageURL) > 0 {
		var obj ImageURL
		var url string
		switch {
		case json.Unmarshal(fields.ImageURL, &obj) == nil && obj.URL != "":
			p.ImageURL = &obj
		case json.Unmarshal(fields.ImageURL, &url) == nil && url != "":
			p.ImageURL = &ImageURL{URL: url}
		}
	}
	return nil
}
