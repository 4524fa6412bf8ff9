//go:build !rp2040 && !rp2350

package storage

import (
	"os"
	"strings"
	"testing"
	"time"

	"datalogger-go/errcode"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCard(t *testing.T, opts ...HostCardOption) (afero.Fs, *HostCard, *Manager) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/card", 0o755))
	card := NewHostCard(fs, "/card", opts...)
	m := NewManager(card, zerolog.Nop(),
		WithSleep(func(time.Duration) {}),
		WithFileFilter(func(n string) bool { return strings.HasPrefix(n, "data_") }))
	return fs, card, m
}

func TestMount_ReportsUsageAndSessionFiles(t *testing.T) {
	fs, _, m := newCard(t, WithCapacity(4<<20))
	require.NoError(t, afero.WriteFile(fs, "/card/data_0002.csv", make([]byte, 2048), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/card/data_0001.csv", make([]byte, 100), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/card/notes.txt", []byte("x"), 0o644))

	rep, err := m.Mount()
	require.NoError(t, err)
	assert.True(t, rep.OK)
	assert.True(t, m.Mounted())
	assert.NotNil(t, m.Volume())
	assert.Equal(t, uint64(4096), rep.TotalKB)
	assert.Equal(t, uint64((4<<20-2149)/1024), rep.FreeKB)
	assert.Equal(t, []types.FileEntry{
		{Name: "data_0001.csv", Size: 100},
		{Name: "data_0002.csv", Size: 2048},
	}, rep.Files)
	assert.Equal(t, types.StorageMounted, m.Status().Kind)
}

func TestMount_NoMedia(t *testing.T) {
	fs, _, m := newCard(t)
	require.NoError(t, fs.RemoveAll("/card"))

	rep, err := m.Mount()
	require.Error(t, err)
	assert.Equal(t, errcode.MediaAbsent, errcode.Of(err))
	assert.Equal(t, "media_absent", rep.Code)
	assert.False(t, m.Mounted())
	assert.False(t, m.Present())
	assert.Equal(t, types.StorageNotPresent, m.Status().Kind)
}

func TestMount_NoFilesystem(t *testing.T) {
	fs, _, m := newCard(t)
	require.NoError(t, fs.RemoveAll("/card"))
	require.NoError(t, afero.WriteFile(fs, "/card", []byte("raw"), 0o644))

	_, err := m.Mount()
	assert.Equal(t, errcode.NoFilesystem, errcode.Of(err))
	assert.True(t, m.Present())
	st := m.Status()
	assert.Equal(t, types.StorageMountFailed, st.Kind)
	assert.Equal(t, "no_filesystem", st.Reason)
}

func TestMount_TwiceIsInvalidState(t *testing.T) {
	_, _, m := newCard(t)
	_, err := m.Mount()
	require.NoError(t, err)

	_, err = m.Mount()
	assert.Equal(t, errcode.InvalidState, errcode.Of(err))
	assert.True(t, m.Mounted(), "a rejected mount must not drop the existing one")
}

func TestReset_LeavesMediaUninitialized(t *testing.T) {
	_, card, m := newCard(t)
	_, err := m.Mount()
	require.NoError(t, err)

	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }
	m.Reset()

	assert.False(t, m.Mounted())
	assert.Nil(t, m.Volume())
	assert.Equal(t, NotInit, card.Status())
	assert.Equal(t, types.StorageUninitialized, m.Status().Kind)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, slept)

	// Mount brings it back through the initialize step.
	rep, err := m.Mount()
	require.NoError(t, err)
	assert.True(t, rep.OK)
	assert.Equal(t, Ready, card.Status())
}

type fakeSession struct {
	active  bool
	stopped int
}

func (f *fakeSession) Active() bool { return f.active }
func (f *fakeSession) Stop() (types.SessionSummary, error) {
	f.stopped++
	f.active = false
	return types.SessionSummary{}, nil
}

func TestUnmount_FinalizesOpenSessionFirst(t *testing.T) {
	_, card, m := newCard(t)
	_, err := m.Mount()
	require.NoError(t, err)

	sess := &fakeSession{active: true}
	rep, err := m.Unmount(sess)
	require.NoError(t, err)
	assert.True(t, rep.OK)
	assert.Equal(t, 1, sess.stopped)
	assert.False(t, m.Mounted())
	assert.Nil(t, m.Volume())
	assert.Equal(t, NotInit, card.Status(), "unmount must force the uninitialized posture")
	assert.Equal(t, types.StorageUninitialized, m.Status().Kind)
}

func TestUnmount_WhenNotMountedSucceeds(t *testing.T) {
	_, _, m := newCard(t)
	rep, err := m.Unmount(nil)
	require.NoError(t, err)
	assert.True(t, rep.OK)
}

func TestRemount_AfterCardSwap(t *testing.T) {
	fs, card, m := newCard(t)
	_, err := m.Mount()
	require.NoError(t, err)
	_, err = m.Unmount(nil)
	require.NoError(t, err)

	require.NoError(t, fs.RemoveAll("/card"))
	require.NoError(t, card.Insert())
	require.NoError(t, afero.WriteFile(fs, "/card/data_0042.csv", []byte("h\n"), 0o644))

	rep, err := m.Mount()
	require.NoError(t, err)
	require.Len(t, rep.Files, 1)
	assert.Equal(t, "data_0042.csv", rep.Files[0].Name)
}

func TestHostFile_WriteFaultAndMediaGone(t *testing.T) {
	fs, _, m := newCard(t, WithWriteFault(2))
	_, err := m.Mount()
	require.NoError(t, err)

	f, err := m.Volume().OpenFile("data_0001.csv", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("a"))
	require.NoError(t, err)
	_, err = f.Write([]byte("b"))
	require.NoError(t, err)
	_, err = f.Write([]byte("c"))
	assert.ErrorIs(t, err, ErrWriteFault)
	require.NoError(t, f.Close())

	_, err = m.Volume().OpenFile("data_0001.csv", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	assert.ErrorIs(t, err, os.ErrExist)

	require.NoError(t, fs.RemoveAll("/card"))
	_, err = m.Volume().OpenFile("data_0002.csv", os.O_WRONLY|os.O_CREATE, 0o644)
	assert.ErrorIs(t, err, ErrMediaGone)
}

func TestHostCard_EjectInsertOnDisk(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	root := dir + "/card"
	require.NoError(t, fs.MkdirAll(root, 0o755))
	card := NewHostCard(fs, root)

	require.NoError(t, card.Eject())
	assert.Equal(t, NoDisk, card.Status())
	require.NoError(t, card.Insert())
	assert.Equal(t, NotInit, card.Status())
}
