package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/darasa/darasa/core/scan"
)

// wedge reads badge codes off a keyboard-wedge scanner: the device types the
// code followed by a newline, so each line on the reader is one scan. It
// doubles as manual entry when the gatekeeper types a code by hand.
//
// It implements both scan.Source (the device is always "acquirable") and
// scan.Detector (one line per sample).
type wedge struct {
	lines chan string
}

func newWedge(r io.Reader) *wedge {
	w := &wedge{lines: make(chan string, 8)}
	go func() {
		defer close(w.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if code := strings.TrimSpace(sc.Text()); code != "" {
				w.lines <- code
			}
		}
	}()
	return w
}

func (w *wedge) Open(ctx context.Context) (scan.Stream, error) { return w, nil }

func (w *wedge) Close() error { return nil }

// Detect returns a pending code, or "" when nothing has been scanned since
// the last sample.
func (w *wedge) Detect(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code, ok := <-w.lines:
		if !ok {
			return "", io.EOF
		}
		return code, nil
	default:
		return "", nil
	}
}
