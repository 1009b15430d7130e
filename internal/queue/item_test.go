package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriperu/dniverify/internal/queue"
)

func TestEncodeParseItem(t *testing.T) {
	t.Parallel()

	item := queue.EncodeItem(42, "12345678")
	require.Equal(t, "42:12345678", item)

	batchID, dni, err := queue.ParseItem(item)
	require.NoError(t, err)
	assert.Equal(t, int64(42), batchID)
	assert.Equal(t, "12345678", dni)
}

func TestParseItem_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "12345678", ":12345678", "42:", "abc:12345678"} {
		_, _, err := queue.ParseItem(raw)
		require.Error(t, err, "raw=%q", raw)
	}
}
