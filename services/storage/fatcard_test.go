//go:build !rp2040 && !rp2350

package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/tinyfs"
)

var errNoCard = errors.New("sdcard: no card")

// memCard is an SD card backed by memory that can be pulled and reinserted.
type memCard struct {
	*tinyfs.MemBlockDevice
	present  bool
	configs  int
	cidReads int
}

func (c *memCard) Configure() error {
	c.configs++
	if !c.present {
		return errNoCard
	}
	return nil
}

func (c *memCard) ReadCID(cid []byte) error {
	c.cidReads++
	if !c.present {
		return errNoCard
	}
	return nil
}

func newFATCard(t *testing.T) (*memCard, *FATCard) {
	t.Helper()
	dev := &memCard{MemBlockDevice: tinyfs.NewMemoryDevice(512, 512, 4096), present: true}
	card := NewFATCard(dev)
	require.NoError(t, card.fs.Format())
	return dev, card
}

func TestFATCard_ExclusiveCreate(t *testing.T) {
	_, card := newFATCard(t)
	m := NewManager(card, zerolog.Nop(), WithSleep(func(time.Duration) {}))
	rep, err := m.Mount()
	require.NoError(t, err)
	require.True(t, rep.OK)
	vol := m.Volume()

	_, err = vol.Stat("data_0001.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)

	f, err := vol.OpenFile("data_0001.csv", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("numero_amostra\n1\n"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	fi, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(17), fi.Size())
	require.NoError(t, f.Close())

	_, err = vol.OpenFile("data_0001.csv", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	assert.ErrorIs(t, err, os.ErrExist, "an existing file is never truncated")
	fi, err = vol.Stat("data_0001.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(17), fi.Size())

	infos, err := vol.ReadDir()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "data_0001.csv", infos[0].Name())

	total, _, err := vol.Usage()
	require.NoError(t, err)
	assert.Equal(t, uint64(512*4096), total)
}

func TestFATCard_PresenceReprobedAfterPull(t *testing.T) {
	dev, card := newFATCard(t)
	assert.Equal(t, Ready, card.Status())
	require.Equal(t, 1, dev.configs)

	// An initialized card is confirmed through its CID, not re-initialized.
	assert.Equal(t, Ready, card.Status())
	assert.Equal(t, 1, dev.configs)
	assert.Equal(t, 1, dev.cidReads)

	dev.present = false
	assert.Equal(t, NoDisk, card.Status())
	assert.Equal(t, NoDisk, card.Status())

	dev.present = true
	assert.Equal(t, Ready, card.Status())
}

func TestFATCard_UnformattedCardHasNoFilesystem(t *testing.T) {
	dev := &memCard{MemBlockDevice: tinyfs.NewMemoryDevice(512, 512, 4096), present: true}
	m := NewManager(NewFATCard(dev), zerolog.Nop(), WithSleep(func(time.Duration) {}))

	_, err := m.Mount()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFilesystem)
	assert.False(t, m.Mounted())
}
