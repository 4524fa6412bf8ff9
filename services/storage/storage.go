// Package storage owns the removable card: the media-driver contract, the
// lifecycle manager that mounts and unmounts it, and the card drivers.
package storage

import (
	"errors"
	"io"
	"os"
)

// DiskStatus is the raw posture reported by the media driver.
type DiskStatus uint8

const (
	NoDisk DiskStatus = iota
	NotInit
	Ready
)

func (s DiskStatus) String() string {
	switch s {
	case NoDisk:
		return "no_disk"
	case NotInit:
		return "not_init"
	default:
		return "ready"
	}
}

// Driver errors the manager maps to codes.
var (
	ErrNoFilesystem = errors.New("storage: no filesystem")
	ErrMediaGone    = errors.New("storage: media removed")
	ErrWriteFault   = errors.New("storage: write fault")
)

// Driver is the low-level media driver.
type Driver interface {
	Status() DiskStatus
	Initialize() error
	// Deinit forces the uninitialized posture, dropping cached state.
	Deinit()
	Mount() (Volume, error)
	Unmount() error
}

// Volume is a mounted filesystem; names are relative to its root.
type Volume interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Stat(name string) (os.FileInfo, error)
	ReadDir() ([]os.FileInfo, error)
	// Usage reports capacity and free space in bytes.
	Usage() (total, free uint64, err error)
}

// File is an open output stream on a Volume.
type File interface {
	io.Writer
	Sync() error
	Stat() (os.FileInfo, error)
	Close() error
}
