package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamURL(t *testing.T) {
	tests := []struct {
		name     string
		instance string
		want     string
	}{
		{"https maps to wss", "https://misskey.example", "wss://misskey.example/streaming?i=tok"},
		{"http maps to ws", "http://localhost:3000", "ws://localhost:3000/streaming?i=tok"},
		{"trailing slash stripped", "https://misskey.example/", "wss://misskey.example/streaming?i=tok"},
		{"path preserved", "https://misskey.example/sub", "wss://misskey.example/sub/streaming?i=tok"},
		{"bare host defaults to https", "misskey.example", "wss://misskey.example/streaming?i=tok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StreamURL(tt.instance, "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamURLRejectsOtherSchemes(t *testing.T) {
	for _, instance := range []string{"ftp://misskey.example", "file:///etc/passwd"} {
		_, err := StreamURL(instance, "tok")
		require.ErrorIs(t, err, ErrBadScheme, instance)
	}
}

func TestSafeStreamURLStripsCredentials(t *testing.T) {
	wsURL, err := StreamURL("https://misskey.example", "super-secret")
	require.NoError(t, err)
	safe := safeStreamURL(wsURL)
	assert.Equal(t, "wss://misskey.example/streaming", safe)
	assert.NotContains(t, safe, "super-secret")
}
