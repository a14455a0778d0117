package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelKey(t *testing.T) {
	assert.Equal(t, "main", ChannelKey("main", nil))
	assert.Equal(t, "main", ChannelKey("main", map[string]any{}))
	assert.Equal(t, "antenna|antennaId=a1", ChannelKey("antenna", map[string]any{"antennaId": "a1"}))

	// Key order in the map must not matter.
	a := ChannelKey("x", map[string]any{"b": "2", "a": "1"})
	b := ChannelKey("x", map[string]any{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "x|a=1|b=2", a)

	assert.NotEqual(t,
		ChannelKey("chatUser", map[string]any{"otherId": "u1"}),
		ChannelKey("chatUser", map[string]any{"otherId": "u2"}))
}

func TestChannelClassification(t *testing.T) {
	for _, name := range []string{"homeTimeline", "localTimeline", "hybridTimeline", "globalTimeline", "antenna"} {
		assert.True(t, IsNoteChannel(name), name)
	}
	assert.False(t, IsNoteChannel("main"))
	assert.False(t, IsNoteChannel("chatUser"))

	assert.True(t, IsChatChannel("chatUser"))
	assert.False(t, IsChatChannel("main"))
}

func TestLooksLikeNote(t *testing.T) {
	full := map[string]any{
		"id":        "n1",
		"createdAt": "2026-08-01T00:00:00Z",
		"userId":    "u1",
		"user":      map[string]any{"id": "u1"},
	}
	assert.True(t, LooksLikeNote(full))

	assert.False(t, LooksLikeNote(nil))
	for _, missing := range []string{"id", "createdAt", "userId", "user"} {
		m := map[string]any{}
		for k, v := range full {
			if k != missing {
				m[k] = v
			}
		}
		assert.False(t, LooksLikeNote(m), "missing %s", missing)
	}
}
