package internal

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxAttachmentSize is the largest accepted attachment in bytes
const MaxAttachmentSize = 20 << 20

// Attachment is an image embedded as a data URL
type Attachment struct {
	Name      string
	MediaType string
	DataURL   string
}

// Part returns the attachment as an image_url content part
func (a Attachment) Part() Part {
	return ImagePart(a.DataURL)
}

// LoadImageAttachment reads an image file into an Attachment
func LoadImageAttachment(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, &AttachmentError{Path: path, Err: err}
	}
	if info.Size() > MaxAttachmentSize {
		return Attachment{}, &AttachmentError{Path: path, Err: fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, info.Size())}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, &AttachmentError{Path: path, Err: err}
	}
	return AttachmentFromBytes(filepath.Base(path), data)
}

// AttachmentFromBytes embeds image bytes as a data URL.
// The media type is sniffed from the content, falling back to the file extension.
func AttachmentFromBytes(name string, data []byte) (Attachment, error) {
	if len(data) > MaxAttachmentSize {
		return Attachment{}, &AttachmentError{Path: name, Err: fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, len(data))}
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); strings.HasPrefix(byExt, "image/") {
			mediaType = byExt
		}
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return Attachment{}, &AttachmentError{Path: name, Err: fmt.Errorf("%w: %s", ErrUnsupportedAttachment, mediaType)}
	}
	return Attachment{
		Name:      name,
		MediaType: mediaType,
		DataURL:   "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Composer holds attachments staged for the next outgoing message
type Composer struct {
	mu      sync.Mutex
	pending []Attachment
}

// NewComposer creates an empty Composer
func NewComposer() *Composer {
	return &Composer{}
}

// Stage adds an attachment to the pending set
func (c *Composer) Stage(a Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, a)
}

// Discard drops every pending attachment
func (c *Composer) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Pending returns a copy of the staged attachments
func (c *Composer) Pending() []Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Attachment(nil), c.pending...)
}

// Take returns the staged attachments and clears them
func (c *Composer) Take() []Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	taken := c.pending
	c.pending = nil
	return taken
}

// BuildUserContent builds the content of an outgoing user message.
// Text alone stays a plain string; with attachments the content becomes parts,
// a text part first when text is present, then one image part per attachment.
func BuildUserContent(text string, attachments []Attachment) Content {
	if len(attachments) == 0 {
		return TextContent(text)
	}
	parts := make([]Part, 0, len(attachments)+1)
	if text != "" {
		parts = append(parts, TextPart(text))
	}
	for _, a := range attachments {
		parts = append(parts, a.Part())
	}
	return PartsContent(parts...)
}
