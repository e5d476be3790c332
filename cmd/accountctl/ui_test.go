package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"account-console/internal/loginclient"
)

type stubLister struct {
	list []loginclient.Account
	err  error
}

func (s stubLister) Accounts(ctx context.Context) ([]loginclient.Account, error) {
	return s.list, s.err
}

func TestTerminalUI_ReloadPrintsAccountsAndSucceeds(t *testing.T) {
	var out bytes.Buffer
	ui := newTerminalUI(&out, stubLister{list: []loginclient.Account{{ID: 1, Name: "Account A", IOSProfile: "iPhone 13"}}})

	ui.SetMessage(loginclient.MsgCompleted)
	ui.Reload()

	if ok := <-ui.Done(); !ok {
		t.Error("Done = false, want true after reload")
	}
	s := out.String()
	if !strings.Contains(s, loginclient.MsgCompleted) || !strings.Contains(s, "Account A") {
		t.Errorf("output = %q", s)
	}
}

func TestTerminalUI_ControlEnabledEndsWithFailure(t *testing.T) {
	ui := newTerminalUI(&bytes.Buffer{}, stubLister{})
	ui.SetControlEnabled(false)
	ui.SetControlEnabled(true)
	ui.SetControlEnabled(true)

	if ok := <-ui.Done(); ok {
		t.Error("Done = true, want false")
	}
}

func TestTerminalUI_DuplicateMessagesPrintedOnce(t *testing.T) {
	var out bytes.Buffer
	ui := newTerminalUI(&out, stubLister{})
	ui.SetMessage(loginclient.MsgWaitingForUser)
	ui.SetMessage(loginclient.MsgWaitingForUser)
	if n := strings.Count(out.String(), loginclient.MsgWaitingForUser); n != 1 {
		t.Errorf("message printed %d times, want 1", n)
	}
}

func TestTerminalUI_ReloadErrorStillFinishes(t *testing.T) {
	var out bytes.Buffer
	ui := newTerminalUI(&out, stubLister{err: errors.New("connection refused")})
	ui.Reload()
	if ok := <-ui.Done(); !ok {
		t.Error("Done = false, want true")
	}
	if !strings.Contains(out.String(), "could not reload accounts") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintMessages(t *testing.T) {
	var out bytes.Buffer
	printMessages(&out, []loginclient.Message{
		{ID: 1, AccountID: 2, ListingTitle: "MacBook Air M1", Sender: "Kunde", Text: "Ist der Preis verhandelbar?", Timestamp: "2024-05-01 10:00"},
	})
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q, want header and one row", lines)
	}
	for _, want := range []string{"MacBook Air M1", "Kunde", "2024-05-01 10:00", "Ist der Preis verhandelbar?"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}
