package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireMessages checks channel and JSON payload of each message in order.
// Each want entry is a {channel, json} pair.
func RequireMessages(t *testing.T, got []Message, want ...[2]string) {
	t.Helper()
	require.Len(t, got, len(want), "messages: %v", got)
	for i, w := range want {
		require.Equal(t, w[0], got[i].Channel, "message %d channel", i)
		require.JSONEq(t, w[1], got[i].Payload, "message %d payload", i)
	}
}
