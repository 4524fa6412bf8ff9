// Package session allocates collision-free session files and records
// sensor samples into them as CSV.
package session

import (
	"bufio"
	"time"

	"datalogger-go/errcode"
	"datalogger-go/services/storage"
	"datalogger-go/types"
	"datalogger-go/x/conv"
	"datalogger-go/x/mathx"

	"github.com/rs/zerolog"
)

// Row buffer bounds; the longest row is 43 bytes.
const (
	minBuffer = 64
	maxBuffer = 4096
)

// Recorder owns at most one open session file. Rows go through a write
// buffer; every checkpointEvery appends the buffer is flushed and the file
// synced, bounding what a power loss can take.
type Recorder struct {
	log             zerolog.Logger
	now             func() time.Time
	checkpointEvery uint32
	attempts        int
	bufSize         int

	f       storage.File
	w       *bufio.Writer
	id      int
	name    string
	count   uint32
	durable uint32
	skipped uint32
	started time.Time
	row     []byte
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

func WithCheckpointEvery(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.checkpointEvery = uint32(n)
		}
	}
}

func WithAttempts(n int) Option { return func(r *Recorder) { r.attempts = n } }

// WithBufferSize sets the row buffer, kept between one row and one
// checkpoint's worth of rows.
func WithBufferSize(n int) Option {
	return func(r *Recorder) { r.bufSize = mathx.Clamp(n, minBuffer, maxBuffer) }
}

func New(log zerolog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		log:             log.With().Str("component", "session").Logger(),
		now:             time.Now,
		checkpointEvery: 50,
		attempts:        10,
		bufSize:         512,
		row:             make([]byte, 0, 64),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start allocates the next identifier, creates the file and makes the header
// durable. On any failure the file is closed and no session exists.
func (r *Recorder) Start(vol storage.Volume) (string, error) {
	if r.f != nil {
		return "", errcode.Wrap(errcode.InvalidState, "start", nil)
	}
	if vol == nil {
		return "", errcode.Wrap(errcode.InvalidState, "start", storage.ErrMediaGone)
	}
	id, err := NextID(vol)
	if err != nil {
		return "", err
	}
	f, id, err := Create(vol, id, r.attempts)
	if err != nil {
		r.log.Error().Str("code", string(errcode.Of(err))).Err(err).Msg("session create failed")
		return "", err
	}
	w := bufio.NewWriterSize(f, r.bufSize)
	if err := writeHeader(w, f); err != nil {
		_ = f.Close()
		r.log.Error().Err(err).Msg("session header write failed")
		return "", errcode.Wrap(errcode.WriteFailed, "start", err)
	}

	r.f, r.w = f, w
	r.id, r.name = id, FileName(id)
	r.count, r.durable, r.skipped = 0, 0, 0
	r.started = r.now()
	r.log.Info().Str("file", r.name).Msg("session started")
	return r.name, nil
}

func writeHeader(w *bufio.Writer, f storage.File) error {
	if _, err := w.WriteString(Header); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Append writes one row and reports whether it completed a durability
// checkpoint. Errors are write_failed and are never retried.
func (r *Recorder) Append(s types.SensorSample) (checkpoint bool, err error) {
	if r.f == nil {
		return false, errcode.Wrap(errcode.InvalidState, "append", nil)
	}
	r.row = appendRow(r.row[:0], r.count+1, s)
	if _, err := r.w.Write(r.row); err != nil {
		return false, errcode.Wrap(errcode.WriteFailed, "append", err)
	}
	r.count++
	if r.count%r.checkpointEvery != 0 {
		return false, nil
	}
	if err := r.flush(); err != nil {
		return false, errcode.Wrap(errcode.WriteFailed, "checkpoint", err)
	}
	return true, nil
}

func appendRow(b []byte, index uint32, s types.SensorSample) []byte {
	b = conv.AppendUint(b, uint64(index))
	for _, v := range [6]int16{s.AccelX, s.AccelY, s.AccelZ, s.GyroX, s.GyroY, s.GyroZ} {
		b = append(b, ',')
		b = conv.AppendInt(b, int64(v))
	}
	return append(b, '\n')
}

// flush makes every appended row durable.
func (r *Recorder) flush() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	if err := r.f.Sync(); err != nil {
		return err
	}
	r.durable = r.count
	return nil
}

// Skip counts a sample that could not be read.
func (r *Recorder) Skip() {
	if r.f != nil {
		r.skipped++
	}
}

// Stop flushes, syncs and closes the file and reports the session. It is a
// no-op returning a zero summary when no session is open.
func (r *Recorder) Stop() (types.SessionSummary, error) {
	if r.f == nil {
		return types.SessionSummary{}, nil
	}
	ferr := r.flush()
	sum := r.summary(false)
	if fi, err := r.f.Stat(); err == nil {
		sum.Bytes = fi.Size()
	}
	cerr := r.f.Close()
	r.clear()

	if ferr == nil {
		ferr = cerr
	}
	if ferr != nil {
		r.log.Error().Str("file", sum.File).Err(ferr).Msg("session finalize failed")
		return sum, errcode.Wrap(errcode.WriteFailed, "stop", ferr)
	}
	r.log.Info().
		Str("file", sum.File).
		Uint32("samples", sum.Samples).
		Dur("duration", sum.Duration).
		Int64("bytes", sum.Bytes).
		Msg("session saved")
	return sum, nil
}

// Abort force-finalizes after a write failure: a last flush is attempted,
// errors are ignored and the session is always released. Rows already made
// durable stay readable and are the only ones the summary counts.
func (r *Recorder) Abort() types.SessionSummary {
	if r.f == nil {
		return types.SessionSummary{}
	}
	_ = r.flush()
	sum := r.summary(true)
	if fi, err := r.f.Stat(); err == nil {
		sum.Bytes = fi.Size()
	}
	_ = r.f.Close()
	r.clear()
	r.log.Warn().Str("file", sum.File).Uint32("samples", sum.Samples).Msg("session aborted")
	return sum
}

func (r *Recorder) summary(aborted bool) types.SessionSummary {
	now := r.now()
	return types.SessionSummary{
		File:     r.name,
		ID:       r.id,
		Samples:  r.durable,
		Duration: now.Sub(r.started),
		Aborted:  aborted,
		Skipped:  r.skipped,
		ClosedAt: now,
	}
}

func (r *Recorder) clear() {
	r.f, r.w = nil, nil
	r.name = ""
}

func (r *Recorder) Active() bool       { return r.f != nil }
func (r *Recorder) Name() string       { return r.name }
func (r *Recorder) Count() uint32      { return r.count }
func (r *Recorder) Started() time.Time { return r.started }
