// The gate terminal: logs a gatekeeper in, acquires the badge reader and
// records entry/exit scans against the API. A keyboard-wedge scanner (or the
// gatekeeper typing codes manually) feeds one code per line on stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/scan"
)

const (
	modeEntry = "entry"
	modeExit  = "exit"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "API base URL")
	username := flag.String("username", "", "gatekeeper account username")
	mode := flag.String("mode", modeEntry, "scan mode: entry | exit")
	flag.Parse()

	logger := log.New(os.Stdout, "GATE : ", log.LstdFlags)
	stdLogger := core.NewStdLogger(logger)

	if *username == "" {
		logger.Fatal("-username is required")
	}
	if *mode != modeEntry && *mode != modeExit {
		logger.Fatalf("unknown mode %q", *mode)
	}

	fmt.Print("Password: ")
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		logger.Fatalf("reading password: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newAPIClient(*server)
	if err = client.Login(ctx, *username, string(pwd)); err != nil {
		logger.Fatalf("logging in: %s", err)
	}
	profile, err := client.Me(ctx)
	if err != nil {
		logger.Fatalf("loading gatekeeper profile: %s", err)
	}
	logger.Printf("welcome %s (gate %d)", profile.FullName, profile.GateNumber)
	if !profile.OnDuty {
		logger.Print("note: you are outside your shift window")
	}

	wdg := newWedge(os.Stdin)
	session := scan.NewSession(wdg, stdLogger)
	if err = session.Start(ctx); err != nil {
		logger.Fatal(scan.FailureMessage(err))
	}
	defer session.Stop()

	poller := scan.NewPoller(wdg, func(code string) { handleScan(ctx, client, logger, *mode, code) }, stdLogger)
	poller.Feedback = func() { fmt.Print("\a") }
	poller.Start(ctx)
	defer poller.Stop()

	logger.Printf("scanning for %s, Ctrl-C to quit", *mode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
}

// handleScan verifies the code and records the movement. Failures are printed
// for the gatekeeper and the terminal keeps scanning.
func handleScan(ctx context.Context, client *apiClient, logger *log.Logger, mode, code string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	v, err := client.Verify(ctx, code)
	if err != nil {
		logger.Printf("%s: %s", code, err)
		return
	}
	if mode == modeEntry && v.IsLate {
		logger.Printf("%s (%s) is LATE (expected by %s)", v.Student.FullName, code, v.ExpectedEntry)
	}

	switch mode {
	case modeEntry:
		e, err := client.RecordEntry(ctx, code)
		if err != nil {
			logger.Printf("recording entry for %s: %s", code, err)
			return
		}
		logger.Printf("IN  %s at %s [%s]", v.Student.FullName, e.EntryTime.Format("15:04"), e.Status)
	case modeExit:
		e, err := client.RecordExit(ctx, code)
		if err != nil {
			logger.Printf("recording exit for %s: %s", code, err)
			return
		}
		logger.Printf("OUT %s at %s [%s]", v.Student.FullName, e.ExitTime.Time.Format("15:04"), e.Status)
	}
}
