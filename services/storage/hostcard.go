//go:build !rp2040 && !rp2350

package storage

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// HostCard simulates a removable card with a directory: the card is present
// while the directory exists, and a regular file at that path is a card
// without a filesystem.
type HostCard struct {
	fs       afero.Fs
	root     string
	capacity uint64

	mu         sync.Mutex
	init       bool
	mounted    bool
	faultAfter int // writes allowed before faulting; 0 disables
	writes     int
}

type HostCardOption func(*HostCard)

// WithCapacity sets the simulated card size in bytes.
func WithCapacity(b uint64) HostCardOption { return func(c *HostCard) { c.capacity = b } }

// WithWriteFault makes every write after the first n fail with ErrWriteFault.
func WithWriteFault(n int) HostCardOption { return func(c *HostCard) { c.faultAfter = n } }

func NewHostCard(fs afero.Fs, root string, opts ...HostCardOption) *HostCard {
	c := &HostCard{fs: fs, root: root, capacity: 1 << 30}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HostCard) stat() (os.FileInfo, bool) {
	fi, err := c.fs.Stat(c.root)
	return fi, err == nil
}

func (c *HostCard) Status() DiskStatus {
	if _, ok := c.stat(); !ok {
		return NoDisk
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.init {
		return NotInit
	}
	return Ready
}

func (c *HostCard) Initialize() error {
	if _, ok := c.stat(); !ok {
		return ErrMediaGone
	}
	c.mu.Lock()
	c.init = true
	c.mu.Unlock()
	return nil
}

func (c *HostCard) Deinit() {
	c.mu.Lock()
	c.init = false
	c.mounted = false
	c.mu.Unlock()
}

func (c *HostCard) Mount() (Volume, error) {
	fi, ok := c.stat()
	if !ok {
		return nil, ErrMediaGone
	}
	if !fi.IsDir() {
		return nil, ErrNoFilesystem
	}
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return &hostVolume{card: c, fs: afero.NewBasePathFs(c.fs, c.root)}, nil
}

func (c *HostCard) Unmount() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return errors.New("storage: not mounted")
	}
	c.mounted = false
	return nil
}

// Eject moves the card directory aside, as pulling the card would.
func (c *HostCard) Eject() error {
	return c.fs.Rename(c.root, c.root+".ejected")
}

// Insert puts an ejected card back, or creates an empty one.
func (c *HostCard) Insert() error {
	if _, err := c.fs.Stat(c.root + ".ejected"); err == nil {
		return c.fs.Rename(c.root+".ejected", c.root)
	}
	return c.fs.MkdirAll(c.root, 0o755)
}

// Writes reports how many writes reached the card.
func (c *HostCard) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *HostCard) checkWrite() error {
	if _, ok := c.stat(); !ok {
		return ErrMediaGone
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return ErrMediaGone
	}
	if c.faultAfter > 0 && c.writes >= c.faultAfter {
		return ErrWriteFault
	}
	c.writes++
	return nil
}

type hostVolume struct {
	card *HostCard
	fs   afero.Fs
}

func (v *hostVolume) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	if _, ok := v.card.stat(); !ok {
		return nil, ErrMediaGone
	}
	f, err := v.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &hostFile{File: f, card: v.card}, nil
}

func (v *hostVolume) Stat(name string) (os.FileInfo, error) { return v.fs.Stat(name) }

func (v *hostVolume) ReadDir() ([]os.FileInfo, error) { return afero.ReadDir(v.fs, "/") }

func (v *hostVolume) Usage() (total, free uint64, err error) {
	var used uint64
	err = afero.Walk(v.fs, "/", func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			used += uint64(fi.Size())
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	total = v.card.capacity
	if used < total {
		free = total - used
	}
	return total, free, nil
}

type hostFile struct {
	afero.File
	card *HostCard
}

func (f *hostFile) Write(p []byte) (int, error) {
	if err := f.card.checkWrite(); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}

func (f *hostFile) Sync() error {
	if _, ok := f.card.stat(); !ok {
		return ErrMediaGone
	}
	return f.File.Sync()
}
