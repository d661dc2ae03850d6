package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iksnae/xerochat/internal"
)

// ImportAll reads sessions exported in JSON format: a single session document
// or an array of them. Entries without messages or a name are still accepted;
// the store assigns an identifier when one is missing or taken. Messages whose
// role is neither user nor assistant are dropped.
func ImportAll(r io.Reader) ([]*internal.Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	var docs []*internal.Session
	if data[0] == '[' {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("invalid session list: %w", err)
		}
	} else {
		var s internal.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid session document: %w", err)
		}
		docs = []*internal.Session{&s}
	}

	sessions := make([]*internal.Session, 0, len(docs))
	for _, s := range docs {
		if s == nil {
			continue
		}
		if s.Messages == nil {
			s.Messages = []internal.Message{}
		}
		if n := s.KeepValidMessages(); n > 0 {
			internal.LogWarn("Dropped %d message(s) with an unsupported role from %q", n, s.Name)
		}
		sessions = append(sessions, s)
	}
	if len(sessions) == 0 {
		return nil, errors.New("no sessions in document")
	}
	return sessions, nil
}

// Import reads one exported session
func Import(r io.Reader) (*internal.Session, error) {
	sessions, err := ImportAll(r)
	if err != nil {
		return nil, err
	}
	if len(sessions) != 1 {
		return nil, fmt.Errorf("expected one session, found %d", len(sessions))
	}
	return sessions[0], nil
}
