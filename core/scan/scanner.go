// Package scan drives a gate's capture session: acquiring the badge reader
// (camera or wedge scanner) and polling it for student codes. The hardware is
// abstracted behind Source and Detector so terminals can plug in whatever
// they have; tests inject fakes.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
)

// Session states
const (
	StateOff          = "off"
	StateInitializing = "initializing"
	StateActive       = "active"
	StateError        = "error"
)

var (
	// errors a Source should return (possibly wrapped) so failures can be
	// turned into an actionable message at the gate
	ErrPermissionDenied = errors.New("device access denied")
	ErrNoDevice         = errors.New("no capture device found")

	ErrSessionActive = errors.New("capture session already started")
)

type (
	// Stream is an acquired device handle; Close releases the hardware.
	Stream interface {
		Close() error
	}

	// Source acquires the capture device. Open must honor ctx cancellation:
	// the session races it against an acquisition timeout.
	Source interface {
		Open(ctx context.Context) (Stream, error)
	}

	// Session owns the capture lifecycle: off > initializing > active, or
	// off > initializing > error when the device cannot be acquired.
	Session struct {
		source Source
		logger core.Logger

		acquireTimeout time.Duration
		maxAttempts    int

		mu      sync.Mutex
		state   string
		stream  Stream
		lastErr error
	}
)

func NewSession(source Source, logger core.Logger) *Session {
	return &Session{
		source:         source,
		logger:         logger,
		acquireTimeout: 5 * time.Second,
		maxAttempts:    3,
		state:          StateOff,
	}
}

func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fault returns the error that put the session in the error state, nil otherwise.
func (s *Session) Fault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start acquires the device, retrying failed attempts before settling in the
// error state. Only an off or errored session can be started.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateActive || s.state == StateInitializing {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.state = StateInitializing
	s.lastErr = nil
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
		stream, err := s.source.Open(acquireCtx)
		cancel()
		if err == nil {
			s.mu.Lock()
			s.state = StateActive
			s.stream = stream
			s.mu.Unlock()
			return nil
		}

		lastErr = err
		s.logger.Warn("acquiring capture device", errors.Wrapf(err, "attempt %d/%d", attempt, s.maxAttempts))
		if ctx.Err() != nil {
			break
		}
	}

	s.mu.Lock()
	s.state = StateError
	s.lastErr = lastErr
	s.mu.Unlock()
	return errors.Wrap(lastErr, "starting capture session")
}

// Stop releases the device and returns to off. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Warn("releasing capture device", err)
		}
		s.stream = nil
	}
	s.state = StateOff
	s.lastErr = nil
}

// FailureMessage maps an acquisition error to the message shown at the gate.
func FailureMessage(err error) string {
	switch errors.Cause(err) {
	case ErrPermissionDenied:
		return "Camera access was denied. Allow camera access for this device, or use manual entry."
	case ErrNoDevice:
		return "No camera was found. Connect a scanner, or use manual entry."
	case context.DeadlineExceeded:
		return "The camera took too long to start. Try again, or use manual entry."
	default:
		return "The camera could not be started. Try again, or use manual entry."
	}
}
