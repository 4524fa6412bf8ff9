package storage

import (
	"errors"
	"os"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/fatfs"
)

// Card is an SD card on SPI: the raw block device plus its init sequence.
// *sdcard.Device satisfies it.
type Card interface {
	tinyfs.BlockDevice
	Configure() error
	ReadCID(cid []byte) error
}

// FATCard drives an SD card carrying a FAT filesystem. The board has no
// card-detect switch: an initialized card is confirmed by reading its CID
// register, anything else is probed with the init sequence.
type FATCard struct {
	dev     Card
	fs      *fatfs.FATFS
	init    bool
	mounted bool
	cid     [16]byte
}

func NewFATCard(dev Card) *FATCard {
	fs := fatfs.New(dev)
	fs.Configure(&fatfs.Config{SectorSize: fatfs.SectorSize})
	return &FATCard{dev: dev, fs: fs}
}

func (c *FATCard) Status() DiskStatus {
	if c.init && c.dev.ReadCID(c.cid[:]) == nil {
		return Ready
	}
	c.init = false
	if c.dev.Configure() != nil {
		return NoDisk
	}
	c.init = true
	return Ready
}

func (c *FATCard) Initialize() error {
	if err := c.dev.Configure(); err != nil {
		return err
	}
	c.init = true
	return nil
}

func (c *FATCard) Deinit() {
	c.init = false
	c.mounted = false
}

func (c *FATCard) Mount() (Volume, error) {
	if err := c.fs.Mount(); err != nil {
		if errors.Is(err, fatfs.FileResultNoFilesystem) {
			return nil, ErrNoFilesystem
		}
		return nil, err
	}
	c.mounted = true
	return &fatVolume{card: c}, nil
}

func (c *FATCard) Unmount() error {
	if !c.mounted {
		return nil
	}
	if err := c.fs.Unmount(); err != nil {
		return err
	}
	c.mounted = false
	return nil
}

type fatVolume struct {
	card *FATCard
}

// OpenFile maps the os flags onto the modes FatFs understands. O_EXCL is
// checked with a Stat; FatFs only opens O_WRONLY|O_CREATE with O_TRUNC or
// O_APPEND.
func (v *fatVolume) OpenFile(name string, flag int, _ os.FileMode) (File, error) {
	if flag&os.O_EXCL != 0 {
		if _, err := v.Stat(name); err == nil {
			return nil, os.ErrExist
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		flag = flag&^os.O_EXCL | os.O_TRUNC
	}
	f, err := v.card.fs.OpenFile(name, flag)
	if err != nil {
		switch {
		case errors.Is(err, fatfs.FileResultExist):
			return nil, os.ErrExist
		case errors.Is(err, fatfs.FileResultNoFile):
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return &fatFile{f: f, name: name, fs: v.card.fs}, nil
}

func (v *fatVolume) Stat(name string) (os.FileInfo, error) {
	fi, err := v.card.fs.Stat(name)
	if err != nil && (errors.Is(err, fatfs.FileResultNoFile) || errors.Is(err, fatfs.FileResultNoPath)) {
		return nil, os.ErrNotExist
	}
	return fi, err
}

func (v *fatVolume) ReadDir() ([]os.FileInfo, error) {
	d, err := v.card.fs.Open("/")
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdir(-1)
}

func (v *fatVolume) Usage() (total, free uint64, err error) {
	total = uint64(v.card.dev.Size())
	n, err := v.card.fs.Free()
	if err != nil {
		return total, 0, err
	}
	return total, uint64(n), nil
}

type fatFile struct {
	f    tinyfs.File
	name string
	fs   *fatfs.FATFS
}

func (f *fatFile) Write(p []byte) (int, error) { return f.f.Write(p) }

func (f *fatFile) Sync() error {
	if s, ok := f.f.(tinyfs.Syncer); ok {
		return s.Sync()
	}
	return nil
}

func (f *fatFile) Stat() (os.FileInfo, error) { return f.fs.Stat(f.name) }

func (f *fatFile) Close() error { return f.f.Close() }
