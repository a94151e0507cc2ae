package scan

import (
	"context"
	"sync"
	"time"

	"github.com/darasa/darasa/core"
)

// Detector samples the active stream once for a readable code; an empty code
// with a nil error means nothing was in front of the reader.
type Detector interface {
	Detect(ctx context.Context) (string, error)
}

// Poller samples a Detector on a fixed tick while the session is live.
// A code different from the previous read is published to the callback;
// identical consecutive reads are dropped (a badge held in front of the
// reader fires once, not once per tick).
type Poller struct {
	detector Detector
	onCode   func(code string)
	logger   core.Logger

	interval time.Duration

	// Feedback, when set, fires on every published code. Wired to whatever
	// the terminal uses to acknowledge a read (vibration, beep).
	Feedback func()

	mu        sync.Mutex
	started   bool
	suspended bool
	lastCode  string

	stopOnce sync.Once
	stopc    chan struct{}
	done     chan struct{}
}

func NewPoller(detector Detector, onCode func(code string), logger core.Logger) *Poller {
	return &Poller{
		detector: detector,
		onCode:   onCode,
		logger:   logger,
		interval: time.Second,
		stopc:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. It returns immediately; Stop or ctx
// cancellation ends the loop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	go p.loop(ctx)
}

// Stop ends the polling loop and waits for it to drain. Idempotent, and a
// no-op on a poller that was never started.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopc) })

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.done
	}
}

// Suspend pauses publishing while a verification is in flight or a scan sits
// on the confirmation screen. Ticks keep firing but reads are discarded.
func (p *Poller) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = true
}

// Resume reenables publishing and forgets the last code, so the badge that
// triggered the suspension can be read again in a fresh cycle.
func (p *Poller) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = false
	p.lastCode = ""
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopc:
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	suspended := p.suspended
	p.mu.Unlock()
	if suspended {
		return
	}

	code, err := p.detector.Detect(ctx)
	if err != nil {
		p.logger.Warn("sampling detector", err)
		return
	}
	if code == "" {
		return
	}

	p.mu.Lock()
	if code == p.lastCode || p.suspended {
		p.mu.Unlock()
		return
	}
	p.lastCode = code
	p.mu.Unlock()

	if p.Feedback != nil {
		p.Feedback()
	}
	p.onCode(code)
}
