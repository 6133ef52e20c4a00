// Package clipboard is the process-wide clipboard session: retry-governed
// set, get and clear operations against a contended platform clipboard, and
// the convenience API built on them.
//
// Every entry point checks the caller's apartment first. The platform
// clipboard is shared with other processes; a busy clipboard is retried a
// bounded number of times, after which the last platform error is returned
// wrapped in ErrClipboardFailed.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"go.klb.dev/dataxfer/internal/apartment"
	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/clip"
	"go.klb.dev/dataxfer/internal/codec"
	"go.klb.dev/dataxfer/internal/dataobject"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/ole"
	"go.klb.dev/dataxfer/internal/policy"
)

const (
	// DefaultAttempts is the number of tries a clipboard operation gets.
	DefaultAttempts = 10
	// DefaultDelay is the pause between tries.
	DefaultDelay = 100 * time.Millisecond
)

var (
	ErrClipboardFailed = errors.New("clipboard operation failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Sleeper blocks for d.
type Sleeper func(d time.Duration)

// Session drives one platform clipboard.
type Session struct {
	platform  clip.Platform
	apartment *apartment.Apartment
	codec     *codec.Codec
	sleep     Sleeper

	attempts int
	delay    time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithApartment makes s check a rather than the process-wide apartment.
func WithApartment(a *apartment.Apartment) Option {
	return func(s *Session) { s.apartment = a }
}

// WithCodec sets the codec used to read and write object payloads.
func WithCodec(cd *codec.Codec) Option {
	return func(s *Session) { s.codec = cd }
}

// WithSleeper replaces time.Sleep between retries.
func WithSleeper(fn Sleeper) Option {
	return func(s *Session) { s.sleep = fn }
}

// WithRetry sets the default retry budget of SetDataObject. Clear and reads
// always use DefaultAttempts and DefaultDelay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Session) { s.attempts, s.delay = attempts, delay }
}

// New returns a session over p.
func New(p clip.Platform, opts ...Option) *Session {
	s := &Session{
		platform:  p,
		apartment: apartment.Default(),
		sleep:     time.Sleep,
		attempts:  DefaultAttempts,
		delay:     DefaultDelay,
	}
	for _, o := range opts {
		o(s)
	}
	if s.codec == nil {
		s.codec = codec.New(policy.Default(), binder.Default())
	}
	return s
}

// NewDataObject returns an empty data object that writes through the
// session's codec.
func (s *Session) NewDataObject() *dataobject.DataObject { return dataobject.New(s.codec) }

// Platform returns the clipboard s drives.
func (s *Session) Platform() clip.Platform { return s.platform }

// retry runs op until it succeeds or attempts tries have failed, sleeping
// delay between tries. attempts below one still tries once.
func (s *Session) retry(what string, attempts int, delay time.Duration, op func() error) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(max(attempts, 1)-1))
	b.Reset()
	for try := 1; ; try++ {
		err := op()
		if err == nil {
			return nil
		}
		next := b.NextBackOff()
		if next == backoff.Stop {
			slog.Warn("clipboard operation failed", "op", what, "attempts", try, "err", err)
			return fmt.Errorf("%w: %s after %d attempts: %w", ErrClipboardFailed, what, try, err)
		}
		slog.Debug("clipboard busy, retrying", "op", what, "attempt", try, "delay", next, "err", err)
		s.sleep(next)
	}
}

// Clear empties the clipboard.
func (s *Session) Clear() error {
	if err := s.apartment.Check(); err != nil {
		return err
	}
	return s.retry("clear", DefaultAttempts, DefaultDelay, func() error {
		return s.platform.SetClipboard(nil)
	})
}

// SetDataObject places data on the clipboard with the session's retry
// budget. With flush the contents are flushed so they outlive this process.
func (s *Session) SetDataObject(data any, flush bool) error {
	return s.SetDataObjectRetry(data, flush, s.attempts, s.delay)
}

// SetDataObjectRetry is SetDataObject with an explicit retry budget. data
// may be a *dataobject.DataObject, a *dataobject.Composition, an
// ole.DataObject, or any other value, which is wrapped in a new data object
// under the format derived from its type.
func (s *Session) SetDataObjectRetry(data any, flush bool, retryTimes int, retryDelay time.Duration) error {
	if err := s.apartment.Check(); err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: nil data", ErrInvalidArgument)
	}
	if retryTimes < 0 {
		return fmt.Errorf("%w: retry times %d", ErrInvalidArgument, retryTimes)
	}
	if retryDelay < 0 {
		return fmt.Errorf("%w: retry delay %s", ErrInvalidArgument, retryDelay)
	}
	native, err := s.nativeOf(data)
	if err != nil {
		return err
	}
	if err := s.retry("set", retryTimes, retryDelay, func() error {
		return s.platform.SetClipboard(native)
	}); err != nil {
		return err
	}
	if !flush {
		return nil
	}
	return s.retry("flush", retryTimes, retryDelay, s.platform.FlushClipboard)
}

func (s *Session) nativeOf(data any) (ole.DataObject, error) {
	switch d := data.(type) {
	case *dataobject.DataObject:
		return d.Composition().Native(), nil
	case *dataobject.Composition:
		return d.Native(), nil
	case ole.DataObject:
		return d, nil
	}
	d, err := dataobject.NewWithValue(data, s.codec)
	if err != nil {
		return nil, fmt.Errorf("set data object: %w", err)
	}
	return d.Composition().Native(), nil
}

// GetDataObject returns the clipboard contents. When this process placed
// them and they have not been flushed, the original object comes back;
// otherwise the result is a read-only view over the platform data.
func (s *Session) GetDataObject() (*dataobject.DataObject, error) {
	if err := s.apartment.Check(); err != nil {
		return nil, err
	}
	var native ole.DataObject
	if err := s.retry("get", DefaultAttempts, DefaultDelay, func() error {
		d, err := s.platform.GetClipboard()
		native = d
		return err
	}); err != nil {
		return nil, err
	}
	if c, ok := dataobject.LocalComposition(native); ok {
		return dataobject.Wrap(c), nil
	}
	return dataobject.Wrap(dataobject.FromNative(native, s.codec)), nil
}

// SetData places value on the clipboard under name and flushes it.
func (s *Session) SetData(name string, value any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty format", ErrInvalidArgument)
	}
	d := s.NewDataObject()
	if err := d.SetData(name, true, value); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

// GetData returns the payload under name, or a synonym of it. A blank name
// is never present.
func (s *Session) GetData(name string) (any, bool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, false, nil
	}
	d, err := s.GetDataObject()
	if err != nil {
		return nil, false, err
	}
	v, ok := d.GetData(name, true)
	return v, ok, nil
}

// ContainsData reports whether name, or a synonym of it, is on the
// clipboard.
func (s *Session) ContainsData(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	d, err := s.GetDataObject()
	if err != nil {
		return false, err
	}
	return d.GetDataPresent(name, true), nil
}

// TryGetData returns the clipboard payload under name as a T.
func TryGetData[T any](s *Session, name string, resolver binder.Resolver) (T, bool, error) {
	var zero T
	if strings.TrimSpace(name) == "" {
		return zero, false, nil
	}
	d, err := s.GetDataObject()
	if err != nil {
		return zero, false, err
	}
	return dataobject.TryGetData[T](d, name, true, resolver)
}

// SetDataAsJSON places value on the clipboard as JSON under name. Data
// objects themselves are rejected; use SetDataObject for those.
func (s *Session) SetDataAsJSON(name string, value any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty format", ErrInvalidArgument)
	}
	switch value.(type) {
	case *dataobject.DataObject, *dataobject.Composition, ole.DataObject:
		return fmt.Errorf("%w: %T cannot be stored as JSON", ErrInvalidArgument, value)
	}
	d := s.NewDataObject()
	if err := d.SetDataAsJSON(name, value); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

// SetText places text on the clipboard in format f.
func (s *Session) SetText(text string, f dataobject.TextFormat) error {
	if !f.Valid() {
		return fmt.Errorf("%w: text format %d", ErrInvalidArgument, f)
	}
	d := s.NewDataObject()
	if err := d.SetText(text, f); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

// GetText returns the clipboard text in format f, or "" when there is none.
func (s *Session) GetText(f dataobject.TextFormat) (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("%w: text format %d", ErrInvalidArgument, f)
	}
	d, err := s.GetDataObject()
	if err != nil {
		return "", err
	}
	return d.GetText(f), nil
}

// ContainsText reports whether the clipboard holds text in format f.
func (s *Session) ContainsText(f dataobject.TextFormat) (bool, error) {
	if !f.Valid() {
		return false, fmt.Errorf("%w: text format %d", ErrInvalidArgument, f)
	}
	d, err := s.GetDataObject()
	if err != nil {
		return false, err
	}
	return d.ContainsText(f), nil
}

func (s *Session) SetFileDropList(files []string) error {
	d := s.NewDataObject()
	if err := d.SetFileDropList(files); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

func (s *Session) GetFileDropList() ([]string, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return nil, err
	}
	return d.GetFileDropList(), nil
}

func (s *Session) ContainsFileDropList() (bool, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return false, err
	}
	return d.ContainsFileDropList(), nil
}

func (s *Session) SetImage(bm exchange.Bitmap) error {
	d := s.NewDataObject()
	if err := d.SetImage(bm); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

func (s *Session) GetImage() (exchange.Bitmap, bool, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return exchange.Bitmap{}, false, err
	}
	bm, ok := d.GetImage()
	return bm, ok, nil
}

func (s *Session) ContainsImage() (bool, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return false, err
	}
	return d.ContainsImage(), nil
}

// SetAudio places the WaveAudio stream r on the clipboard.
func (s *Session) SetAudio(r io.Reader) error {
	d := s.NewDataObject()
	if err := d.SetAudio(r); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

// SetAudioBytes places WaveAudio bytes on the clipboard.
func (s *Session) SetAudioBytes(b []byte) error {
	d := s.NewDataObject()
	if err := d.SetAudioBytes(b); err != nil {
		return err
	}
	return s.SetDataObject(d, true)
}

func (s *Session) GetAudioStream() (io.Reader, bool, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return nil, false, err
	}
	r, ok := d.GetAudioStream()
	return r, ok, nil
}

func (s *Session) ContainsAudio() (bool, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return false, err
	}
	return d.ContainsAudio(), nil
}

// Formats lists the formats on the clipboard.
func (s *Session) Formats(autoConvert bool) ([]string, error) {
	d, err := s.GetDataObject()
	if err != nil {
		return nil, err
	}
	return d.GetFormats(autoConvert), nil
}
