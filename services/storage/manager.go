package storage

import (
	"errors"
	"sort"
	"time"

	"datalogger-go/errcode"
	"datalogger-go/types"
	"datalogger-go/x/mathx"

	"github.com/rs/zerolog"
)

// Finalizer is the open session, if any; Unmount closes it first.
type Finalizer interface {
	Active() bool
	Stop() (types.SessionSummary, error)
}

// Manager is the storage lifecycle manager. The mounted flag is the single
// source of truth for whether a session may be created.
type Manager struct {
	drv     Driver
	vol     Volume
	mounted bool
	lastErr errcode.Code

	settle time.Duration
	sleep  func(time.Duration)
	now    func() time.Time
	filter func(name string) bool
	log    zerolog.Logger
}

type Option func(*Manager)

// WithSettle sets the stabilisation delay applied around a reset.
func WithSettle(d time.Duration) Option { return func(m *Manager) { m.settle = d } }

// WithSleep replaces time.Sleep (tests).
func WithSleep(f func(time.Duration)) Option { return func(m *Manager) { m.sleep = f } }

func WithClock(f func() time.Time) Option { return func(m *Manager) { m.now = f } }

// WithFileFilter selects which root entries the mount report lists.
func WithFileFilter(f func(name string) bool) Option { return func(m *Manager) { m.filter = f } }

func NewManager(drv Driver, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		drv:    drv,
		settle: 100 * time.Millisecond,
		sleep:  time.Sleep,
		now:    time.Now,
		filter: func(string) bool { return true },
		log:    log.With().Str("component", "storage").Logger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Reset forces the driver to the uninitialized posture and gives the media
// time to stabilise. Mount initializes it again.
func (m *Manager) Reset() {
	m.drv.Deinit()
	m.mounted = false
	m.vol = nil
	m.sleep(m.settle)
}

// Mount resets the media, initializes it if needed and mounts the
// filesystem. The report lists capacity and the session files found.
// Calling Mount while mounted is an invalid_state error.
func (m *Manager) Mount() (types.MediaReport, error) {
	rep := types.MediaReport{Op: "mount", TS: m.now()}
	if m.mounted {
		return m.fail(rep, errcode.Wrap(errcode.InvalidState, "mount", nil))
	}
	m.Reset()

	switch m.drv.Status() {
	case NoDisk:
		return m.fail(rep, errcode.Wrap(errcode.MediaAbsent, "mount", nil))
	case NotInit:
		if err := m.drv.Initialize(); err != nil {
			return m.fail(rep, errcode.Wrap(errcode.MediaUninitialized, "mount", err))
		}
	}

	vol, err := m.drv.Mount()
	if err != nil {
		code := errcode.MountFailed
		if errors.Is(err, ErrNoFilesystem) {
			code = errcode.NoFilesystem
		}
		return m.fail(rep, errcode.Wrap(code, "mount", err))
	}
	m.vol = vol
	m.mounted = true
	m.lastErr = ""

	rep.OK = true
	if total, free, err := vol.Usage(); err == nil {
		rep.TotalKB = mathx.CeilDiv(total, 1024)
		rep.FreeKB = free / 1024
	}
	if infos, err := vol.ReadDir(); err == nil {
		for _, fi := range infos {
			if fi.IsDir() || !m.filter(fi.Name()) {
				continue
			}
			rep.Files = append(rep.Files, types.FileEntry{Name: fi.Name(), Size: fi.Size()})
		}
		sort.Slice(rep.Files, func(i, j int) bool { return rep.Files[i].Name < rep.Files[j].Name })
	}
	m.log.Info().
		Uint64("total_kb", rep.TotalKB).
		Uint64("free_kb", rep.FreeKB).
		Int("files", len(rep.Files)).
		Msg("card mounted")
	for _, f := range rep.Files {
		m.log.Info().Str("file", f.Name).Int64("bytes", f.Size).Msg("session file")
	}
	return rep, nil
}

// Unmount finalizes an open session, unmounts and forces the uninitialized
// posture so a swapped card is never read through stale state. Unmounting
// while not mounted succeeds.
func (m *Manager) Unmount(sess Finalizer) (types.MediaReport, error) {
	rep := types.MediaReport{Op: "unmount", TS: m.now()}
	if sess != nil && sess.Active() {
		if _, err := sess.Stop(); err != nil {
			m.log.Warn().Err(err).Msg("session finalize before unmount failed")
		}
	}
	if !m.mounted {
		m.log.Info().Msg("card already unmounted")
		rep.OK = true
		return rep, nil
	}
	if err := m.drv.Unmount(); err != nil {
		return m.fail(rep, errcode.Wrap(errcode.UnmountFailed, "unmount", err))
	}
	m.mounted = false
	m.vol = nil
	m.drv.Deinit()
	m.log.Info().Msg("card unmounted")
	rep.OK = true
	return rep, nil
}

func (m *Manager) fail(rep types.MediaReport, err error) (types.MediaReport, error) {
	code := errcode.Of(err)
	if rep.Op == "mount" && code != errcode.InvalidState {
		m.lastErr = code
	}
	rep.Code = string(code)
	m.log.Error().Str("op", rep.Op).Str("code", string(code)).Err(err).Msg("storage operation failed")
	return rep, err
}

func (m *Manager) Mounted() bool { return m.mounted }

// Volume returns the mounted volume, nil when unmounted.
func (m *Manager) Volume() Volume { return m.vol }

// Present queries raw media presence without side effects.
func (m *Manager) Present() bool { return m.drv.Status() != NoDisk }

// Status derives the storage posture from the media on every call.
func (m *Manager) Status() types.StorageStatus {
	st := m.drv.Status()
	switch {
	case st == NoDisk:
		return types.StorageStatus{Kind: types.StorageNotPresent}
	case m.mounted:
		return types.StorageStatus{Kind: types.StorageMounted}
	case m.lastErr != "":
		return types.StorageStatus{Kind: types.StorageMountFailed, Reason: string(m.lastErr)}
	case st == NotInit:
		return types.StorageStatus{Kind: types.StorageUninitialized}
	default:
		return types.StorageStatus{Kind: types.StorageUnmounted}
	}
}
