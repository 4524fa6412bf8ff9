package session

import (
	"errors"
	"os"

	"datalogger-go/errcode"
	"datalogger-go/services/storage"
)

// NextID scans the volume root and returns max+1 over the session files
// found, 1 on an empty card and 0 once 9999 exists.
func NextID(vol storage.Volume) (int, error) {
	infos, err := vol.ReadDir()
	if err != nil {
		return 0, errcode.Wrap(errcode.CreateFailed, "scan", err)
	}
	highest := 0
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		if id, ok := ParseID(fi.Name()); ok && id > highest {
			highest = id
		}
	}
	return nextID(highest), nil
}

// Create opens a new session file with create-exclusive semantics. It starts
// from id and moves to the next identifier on every collision, giving up
// with name_exhausted after attempts tries.
func Create(vol storage.Volume, id, attempts int) (storage.File, int, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		name := FileName(id)
		if _, err := vol.Stat(name); err == nil {
			id = nextID(id)
			continue
		}
		f, err := vol.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		switch {
		case err == nil:
			return f, id, nil
		case errors.Is(err, os.ErrExist):
			id = nextID(id)
		default:
			return nil, id, errcode.Wrap(errcode.CreateFailed, "create", err)
		}
	}
	return nil, id, errcode.Wrap(errcode.NameExhausted, "create", nil)
}
