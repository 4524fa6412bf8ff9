//go:build !rp2040 && !rp2350

package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"datalogger-go/bus"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "logger.db")
	j, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, path
}

func TestRecordAndListSessions(t *testing.T) {
	j, _ := openTemp(t)
	closed := time.UnixMilli(1_700_000_000_123)

	require.NoError(t, j.RecordSession(types.SessionSummary{
		File: "data_0001.csv", ID: 1, Samples: 750, Duration: 10 * time.Second,
		Bytes: 21000, ClosedAt: closed,
	}))
	require.NoError(t, j.RecordSession(types.SessionSummary{
		File: "data_0002.csv", ID: 2, Samples: 40, Skipped: 2, Aborted: true,
		Duration: 500 * time.Millisecond, Bytes: 900, ClosedAt: closed.Add(time.Minute),
	}))

	got, err := j.Sessions(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "data_0002.csv", got[0].File)
	assert.True(t, got[0].Aborted)
	assert.Equal(t, uint32(2), got[0].Skipped)
	assert.Equal(t, Entry{
		File: "data_0001.csv", ID: 1, Samples: 750, Duration: 10 * time.Second,
		Bytes: 21000, ClosedAt: closed,
	}, got[1])

	got, err = j.Sessions(1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReopenKeepsHistory(t *testing.T) {
	j, path := openTemp(t)
	require.NoError(t, j.RecordMedia(types.MediaReport{Op: "mount", OK: true, TotalKB: 1024, TS: time.Now()}))
	require.NoError(t, j.Close())

	j2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer j2.Close()
	n, err := j2.MediaEvents("mount")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := schemaVersion(j2.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestRejectsBadRows(t *testing.T) {
	j, _ := openTemp(t)
	assert.Error(t, j.RecordMedia(types.MediaReport{Op: "format"}))
	assert.Error(t, j.RecordSession(types.SessionSummary{File: "x", ID: 10000}))
}

func TestStartRecordsBusEvents(t *testing.T) {
	j, _ := openTemp(t)
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Start(ctx, b.NewConnection("journal"))

	pub := b.NewConnection("control")
	pub.Publish(pub.NewMessage(bus.TopicMedia(), types.MediaReport{Op: "unmount", OK: true, TS: time.Now()}, false))
	pub.Publish(pub.NewMessage(bus.TopicSessionClosed(), types.SessionSummary{}, false))
	pub.Publish(pub.NewMessage(bus.TopicSessionClosed(), types.SessionSummary{File: "data_0003.csv", ID: 3, ClosedAt: time.Now()}, false))

	assert.Eventually(t, func() bool {
		n, err := j.MediaEvents("unmount")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		got, err := j.Sessions(10)
		return err == nil && len(got) == 1 && got[0].File == "data_0003.csv"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWaitDrainsQueuedEvents(t *testing.T) {
	j, _ := openTemp(t)
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx, b.NewConnection("journal"))

	pub := b.NewConnection("control")
	pub.Publish(pub.NewMessage(bus.TopicSessionClosed(), types.SessionSummary{File: "data_0009.csv", ID: 9, ClosedAt: time.Now()}, false))
	cancel()
	j.Wait()

	got, err := j.Sessions(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].ID)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("", zerolog.Nop())
	assert.Error(t, err)
}
