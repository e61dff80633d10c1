package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_MemoryRemovesScratchOnClose(t *testing.T) {
	ctx := context.Background()
	e, err := Start(ctx, "")
	require.NoError(t, err)

	scratch := e.scratch
	require.NotEmpty(t, scratch)
	assert.DirExists(t, scratch)
	assert.False(t, e.Persistent())

	info, err := e.Stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, jetstream.MemoryStorage, info.Config.Storage)

	require.NoError(t, e.Close())
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "scratch dir should be removed")
}

func TestStart_PersistentKeepsReceipts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	e, err := Start(ctx, dir)
	require.NoError(t, err)
	assert.True(t, e.Persistent())
	assert.Empty(t, e.scratch)

	_, err = e.JS.Publish(ctx, SubjectForReceipt("enrollment"), []byte(`{"flow":"enrollment"}`))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.DirExists(t, dir)

	e, err = Start(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	info, err := e.Stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, jetstream.FileStorage, info.Config.Storage)
	assert.Equal(t, uint64(1), info.State.Msgs)
}

func TestCreateConsumer_FiltersByFlow(t *testing.T) {
	ctx := context.Background()
	e, err := Start(ctx, "")
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	for _, flow := range []string{"enrollment", "claims", "enrollment"} {
		_, err := e.JS.Publish(ctx, SubjectForReceipt(flow), []byte(flow))
		require.NoError(t, err)
	}

	tests := []struct {
		flow string
		want int
	}{
		{"enrollment", 2},
		{"claims", 1},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run("flow="+tt.flow, func(t *testing.T) {
			cons, err := CreateConsumer(ctx, e.Stream, tt.flow)
			require.NoError(t, err)
			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(500*time.Millisecond))
			require.NoError(t, err)
			n := 0
			for range batch.Messages() {
				n++
			}
			assert.Equal(t, tt.want, n)
		})
	}
}
