package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessage_UnmarshalDatetime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 with offset", `"2024-05-01T12:00:00.5+02:00"`, time.Date(2024, 5, 1, 10, 0, 0, 5e8, time.UTC)},
		{"naive with space", `"2024-05-01 10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"naive with T and micros", `"2024-05-01T10:00:00.123456"`, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)},
		{"empty", `""`, time.Time{}},
		{"null", `null`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m ChatMessage
			err := json.Unmarshal([]byte(`{"message":"hi","sender":"ann","datetime":`+tt.raw+`}`), &m)

			require.NoError(t, err)
			assert.Equal(t, "hi", m.Message)
			assert.Equal(t, "ann", m.Sender)
			assert.True(t, m.Datetime.Equal(tt.want), "got %v want %v", m.Datetime, tt.want)
		})
	}
}

func TestChatMessage_UnmarshalMissingDatetime(t *testing.T) {
	var m ChatMessage
	require.NoError(t, json.Unmarshal([]byte(`{"message":"hi"}`), &m))
	assert.True(t, m.Datetime.IsZero())
}

func TestChatMessage_UnmarshalRejectsGarbageDatetime(t *testing.T) {
	var m ChatMessage
	assert.Error(t, json.Unmarshal([]byte(`{"message":"hi","datetime":"yesterday"}`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"message":"hi","datetime":42}`), &m))
}

func TestChatMessage_RoundTripsSentTime(t *testing.T) {
	sent := ChatMessage{Message: "hi", Datetime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(sent)
	require.NoError(t, err)

	var got ChatMessage
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.Datetime.Equal(sent.Datetime))
}
