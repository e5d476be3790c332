package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"account-console/internal/loginclient"
)

// accountLister is the part of the client used to redraw the account table.
type accountLister interface {
	Accounts(ctx context.Context) ([]loginclient.Account, error)
}

// terminalUI prints controller messages as lines. The flow ends when the control is enabled again
// (failure) or on reload (success).
type terminalUI struct {
	out      io.Writer
	accounts accountLister

	mu   sync.Mutex
	last string
	once sync.Once
	done chan bool
}

func newTerminalUI(out io.Writer, accounts accountLister) *terminalUI {
	return &terminalUI{out: out, accounts: accounts, done: make(chan bool, 1)}
}

// Done yields true after a reload and false when the flow ended without success.
func (u *terminalUI) Done() <-chan bool { return u.done }

func (u *terminalUI) SetMessage(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if msg == u.last {
		return
	}
	u.last = msg
	fmt.Fprintf(u.out, "[%s] %s\n", time.Now().Format("15:04:05"), msg)
}

func (u *terminalUI) SetControlEnabled(enabled bool) {
	if enabled {
		u.finish(false)
	}
}

func (u *terminalUI) Reload() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	list, err := u.accounts.Accounts(ctx)
	u.mu.Lock()
	if err != nil {
		fmt.Fprintf(u.out, "could not reload accounts: %v\n", err)
	} else {
		printAccounts(u.out, list)
	}
	u.mu.Unlock()
	u.finish(true)
}

func (u *terminalUI) finish(ok bool) {
	u.once.Do(func() { u.done <- ok })
}

func printAccounts(out io.Writer, list []loginclient.Account) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tAGE (DAYS)\tPROXY\tIOS PROFILE\tNOTES")
	for _, a := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n", a.ID, a.Name, a.Email, a.AgeDays, a.Proxy, a.IOSProfile, a.Notes)
	}
	_ = tw.Flush()
}

func printMessages(out io.Writer, list []loginclient.Message) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACCOUNT\tLISTING\tSENDER\tTIME\tTEXT")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", m.ID, m.AccountID, m.ListingTitle, m.Sender, m.Timestamp, m.Text)
	}
	_ = tw.Flush()
}
