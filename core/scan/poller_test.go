package scan

import (
	"context"
	"sync"
	"testing"
	"time"
)

// scriptedDetector replays a fixed sequence of reads, then reads empty forever.
type scriptedDetector struct {
	mu    sync.Mutex
	reads []string
	i     int
}

func (d *scriptedDetector) Detect(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.i >= len(d.reads) {
		return "", nil
	}
	code := d.reads[d.i]
	d.i++
	return code, nil
}

// constantDetector always reads the same code.
type constantDetector struct{ code string }

func (d constantDetector) Detect(ctx context.Context) (string, error) { return d.code, nil }

func collectPoller(d Detector) (*Poller, chan string) {
	codes := make(chan string, 16)
	p := NewPoller(d, func(code string) { codes <- code }, testLogger)
	p.interval = 2 * time.Millisecond
	return p, codes
}

func waitCode(t *testing.T, codes chan string) string {
	t.Helper()
	select {
	case code := <-codes:
		return code
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a published code")
		return ""
	}
}

func assertNoCode(t *testing.T, codes chan string) {
	t.Helper()
	select {
	case code := <-codes:
		t.Fatalf("unexpected code %q published", code)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPollerDedupesConsecutiveReads(t *testing.T) {
	d := &scriptedDetector{reads: []string{"stu001", "stu001", "stu002", "", "stu001"}}
	p, codes := collectPoller(d)

	var feedbacks int
	var mu sync.Mutex
	p.Feedback = func() {
		mu.Lock()
		feedbacks++
		mu.Unlock()
	}

	p.Start(context.Background())
	defer p.Stop()

	want := []string{"stu001", "stu002", "stu001"}
	for _, w := range want {
		if got := waitCode(t, codes); got != w {
			t.Errorf("published %q, want %q", got, w)
		}
	}
	assertNoCode(t, codes)

	mu.Lock()
	defer mu.Unlock()
	if feedbacks != len(want) {
		t.Errorf("feedback fired %d times, want %d", feedbacks, len(want))
	}
}

func TestPollerSuspendResume(t *testing.T) {
	p, codes := collectPoller(constantDetector{code: "stu001"})
	p.Start(context.Background())
	defer p.Stop()

	if got := waitCode(t, codes); got != "stu001" {
		t.Fatalf("published %q, want stu001", got)
	}

	p.Suspend()
	// drain anything published before the suspension landed
	for {
		select {
		case <-codes:
			continue
		case <-time.After(20 * time.Millisecond):
		}
		break
	}
	assertNoCode(t, codes)

	// resume forgets the last code: the badge still in front of the reader
	// starts a fresh cycle
	p.Resume()
	if got := waitCode(t, codes); got != "stu001" {
		t.Errorf("published %q after resume, want stu001", got)
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p, _ := collectPoller(constantDetector{})
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

func TestPollerStopWithoutStart(t *testing.T) {
	p, _ := collectPoller(constantDetector{})

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() hung on a poller that was never started")
	}
}
