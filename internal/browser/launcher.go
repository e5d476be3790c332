// Package browser opens the interactive Chrome session in which an operator logs an account in.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultCheckInterval is how often the page location is checked for a finished login.
const DefaultCheckInterval = 2 * time.Second

// Session describes the account a browser is opened for.
type Session struct {
	AccountID  int64
	Proxy      string
	IOSProfile string
}

// Config configures a Launcher.
type Config struct {
	// DataDir holds one Chrome profile per account under profiles/account_<id>.
	DataDir string
	// LoginURL is opened in the new window.
	LoginURL string
	// Headless hides the window. The login needs a human, so this is for smoke tests only.
	Headless bool
	// CheckInterval overrides DefaultCheckInterval.
	CheckInterval time.Duration
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
}

// Launcher starts Chrome with a persistent per-account profile.
type Launcher struct {
	cfg Config
	log *zap.Logger
}

// NewLauncher returns a Launcher. A nil logger disables logging.
func NewLauncher(cfg Config, log *zap.Logger) *Launcher {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{cfg: cfg, log: log}
}

// ProfileDir returns the Chrome user data dir of the account.
func (l *Launcher) ProfileDir(accountID int64) string {
	return filepath.Join(l.cfg.DataDir, "profiles", "account_"+strconv.FormatInt(accountID, 10))
}

// Launch opens the login page for s and blocks until the operator has logged in, the window is closed or
// ctx ends. onReady is called once the login page has loaded. A nil return means the browser left the
// login page. The browser is closed when Launch returns; cookies stay in the profile directory.
func (l *Launcher) Launch(ctx context.Context, s Session, onReady func()) error {
	proxy, err := ParseProxy(s.Proxy)
	if err != nil {
		return err
	}
	profile := l.ProfileDir(s.AccountID)
	if err := os.MkdirAll(profile, 0o700); err != nil {
		return fmt.Errorf("browser: create profile dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("lang", "de-DE"),
		chromedp.Flag("accept-lang", "de-DE"),
		chromedp.UserDataDir(profile),
		chromedp.WindowSize(430, 932),
	)
	if proxy.Server != "" {
		opts = append(opts, chromedp.ProxyServer(proxy.Server))
	}
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	log := l.log.With(zap.Int64("account_id", s.AccountID), zap.String("profile", profile))

	// Start the browser before subscribing so the listener is bound to the page target.
	if err := chromedp.Run(taskCtx); err != nil {
		return fmt.Errorf("browser: start: %w", err)
	}
	if proxy.HasAuth() {
		chromedp.ListenTarget(taskCtx, proxyAuthHandler(taskCtx, proxy, log))
	}

	actions := []chromedp.Action{chromedp.Emulate(DeviceFor(s.IOSProfile))}
	if proxy.HasAuth() {
		actions = append([]chromedp.Action{fetch.Enable().WithHandleAuthRequests(true)}, actions...)
	}
	actions = append(actions, chromedp.Navigate(l.cfg.LoginURL))
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return fmt.Errorf("browser: open login page: %w", err)
	}
	log.Info("login page opened", zap.String("url", l.cfg.LoginURL), zap.String("device", s.IOSProfile))
	if onReady != nil {
		onReady()
	}

	return l.waitForLogin(ctx, taskCtx, log)
}

func (l *Launcher) waitForLogin(ctx, taskCtx context.Context, log *zap.Logger) error {
	ticker := time.NewTicker(l.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-taskCtx.Done():
			return errors.New("browser window closed")
		case <-ticker.C:
		}
		var location string
		if err := chromedp.Run(taskCtx, chromedp.Location(&location)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("browser window closed: %w", err)
		}
		if LeftLoginPage(location, l.cfg.LoginURL) {
			log.Info("login page left", zap.String("location", location))
			return nil
		}
	}
}

// proxyAuthHandler answers proxy auth challenges with the proxy credentials and releases paused requests.
// Commands must not run on the listener goroutine, hence the goroutines.
func proxyAuthHandler(ctx context.Context, proxy Proxy, log *zap.Logger) func(ev any) {
	return func(ev any) {
		switch ev := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				if err := fetch.ContinueRequest(ev.RequestID).Do(executor(ctx)); err != nil && ctx.Err() == nil {
					log.Debug("continue request failed", zap.Error(err))
				}
			}()
		case *fetch.EventAuthRequired:
			resp := &fetch.AuthChallengeResponse{Response: fetch.AuthChallengeResponseResponseDefault}
			if ev.AuthChallenge != nil && ev.AuthChallenge.Source == fetch.AuthChallengeSourceProxy {
				resp = &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: proxy.Username,
					Password: proxy.Password,
				}
			}
			go func() {
				if err := fetch.ContinueWithAuth(ev.RequestID, resp).Do(executor(ctx)); err != nil && ctx.Err() == nil {
					log.Debug("continue with auth failed", zap.Error(err))
				}
			}()
		}
	}
}

func executor(ctx context.Context) context.Context {
	c := chromedp.FromContext(ctx)
	return cdp.WithExecutor(ctx, c.Target)
}
