package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChatMessage is one frame exchanged on a product chat room.
type ChatMessage struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

// chatTimeLayouts are tried in order. Layouts without a zone are read as UTC.
var chatTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseChatTime accepts RFC 3339, naive ISO datetimes with a T or space separator, and
// the empty string (zero time).
func ParseChatTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range chatTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized chat datetime %q", s)
}

// UnmarshalJSON decodes the datetime leniently. A null datetime is the zero time.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type plain ChatMessage
	var raw struct {
		plain
		Datetime json.RawMessage `json:"datetime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ChatMessage(raw.plain)
	m.Datetime = time.Time{}
	if len(raw.Datetime) == 0 || bytes.Equal(raw.Datetime, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Datetime, &s); err != nil {
		return fmt.Errorf("chat datetime: %w", err)
	}
	t, err := ParseChatTime(s)
	if err != nil {
		return err
	}
	m.Datetime = t
	return nil
}
