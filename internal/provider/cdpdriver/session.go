// File: internal/provider/cdpdriver/session.go
//
// Package cdpdriver implements the provider client over a remote Chrome
// DevTools Protocol endpoint. Every CDP vendor hands us a WebSocket URL;
// everything after that point is identical, so all vendor bindings share
// this one session type.
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultElementWait       = 10 * time.Second
)

// Options configure a remote CDP session.
type Options struct {
	// Name is the vendor name reported by the session.
	Name string

	// WebSocketURL is the vendor-issued CDP endpoint, including any
	// authentication query parameters the vendor requires.
	WebSocketURL string

	// Release tears down the vendor-side session after the local
	// connection is closed. Optional.
	Release func(ctx context.Context) error

	// NavigationTimeout bounds each page load; ElementWait is the
	// implicit wait applied to element lookups.
	NavigationTimeout time.Duration
	ElementWait       time.Duration

	Store  *output.Store
	Logger *zap.Logger
}

// Session drives one remote browser tab over CDP. It implements
// provider.Client. Methods are safe to call from a single goroutine;
// concurrent calls against the same tab are not supported.
type Session struct {
	name   string
	logger *zap.Logger
	store  *output.Store

	navigationTimeout time.Duration
	elementWait       time.Duration

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	release       func(ctx context.Context) error

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the vendor's WebSocket endpoint and verifies the
// browser responds before returning. On failure the vendor session is
// released so it does not leak against the account's concurrency limit.
func Dial(ctx context.Context, opts Options) (*Session, error) {
	if opts.WebSocketURL == "" {
		return nil, fmt.Errorf("cdpdriver: missing websocket URL for %s", opts.Name)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}
	if opts.ElementWait <= 0 {
		opts.ElementWait = defaultElementWait
	}

	// NoModifyURL: vendor endpoints carry signed query parameters that a
	// /json/version probe would invalidate.
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), opts.WebSocketURL, chromedp.NoModifyURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		name:              opts.Name,
		logger:            opts.Logger.Named("cdp"),
		store:             opts.Store,
		navigationTimeout: opts.NavigationTimeout,
		elementWait:       opts.ElementWait,
		allocCancel:       allocCancel,
		browserCtx:        browserCtx,
		browserCancel:     browserCancel,
		release:           opts.Release,
	}

	// An empty Run establishes the WebSocket connection and attaches to a
	// target, surfacing bad endpoints immediately.
	if err := s.run(ctx); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = s.Close(closeCtx)
		return nil, fmt.Errorf("connecting to %s session: %w", opts.Name, err)
	}

	s.logger.Debug("remote CDP session established", zap.String("provider", opts.Name))
	return s, nil
}

// run executes chromedp actions under the combined lifetime of the
// session and the caller's context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.browserCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Name reports the vendor that issued this session.
func (s *Session) Name() string { return s.name }

// Navigate loads the URL and waits for the document response. A non-2xx
// response or a timeout yields a *provider.NavigationError.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("navigating", zap.String("url", url))

	opCtx, opCancel := combineContext(s.browserCtx, ctx)
	defer opCancel()
	navCtx, navCancel := context.WithTimeout(opCtx, s.navigationTimeout)
	defer navCancel()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return &provider.NavigationError{URL: url, Err: fmt.Errorf("timed out after %s: %w", s.navigationTimeout, err)}
		}
		return &provider.NavigationError{URL: url, Err: err}
	}
	// resp is nil for same-document navigations (fragment changes).
	if resp != nil && resp.Status >= 400 {
		return &provider.NavigationError{URL: url, Status: resp.Status}
	}

	// Wait for the body so immediate lookups see a parsed document.
	// Non-critical: some pages never settle and are still scrapeable.
	readyCtx, readyCancel := context.WithTimeout(opCtx, s.elementWait)
	defer readyCancel()
	if err := chromedp.Run(readyCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		s.logger.Warn("document body not ready after navigation", zap.String("url", url), zap.Error(err))
	}
	return nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}
	return title, nil
}

// CurrentURL returns the top frame's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

// PageSource returns the serialized DOM of the current page.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page source: %w", err)
	}
	return html, nil
}

// FindElement returns the first element matching the CSS selector,
// waiting up to the configured element wait.
func (s *Session) FindElement(ctx context.Context, selector string) (*cdp.Node, error) {
	nodes, err := s.FindElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// FindElements returns all elements matching the CSS selector. Unlike
// FindElement it never returns an empty result without an error; a
// selector matching nothing yields a *provider.NotFoundError.
func (s *Session) FindElements(ctx context.Context, selector string) ([]*cdp.Node, error) {
	opCtx, opCancel := combineContext(s.browserCtx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, s.elementWait)
	defer waitCancel()

	var nodes []*cdp.Node
	err := chromedp.Run(waitCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll))
	if err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && opCtx.Err() == nil {
			return nil, &provider.NotFoundError{Selector: selector, Wait: s.elementWait, Err: err}
		}
		return nil, fmt.Errorf("querying '%s': %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, &provider.NotFoundError{Selector: selector, Wait: s.elementWait}
	}
	return nodes, nil
}

// Click scrolls the element into view, waits for it to be visible, and
// clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("clicking", zap.String("selector", selector))
	err := s.interact(ctx, selector, chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("clicking '%s': %w", selector, err)
	}
	return nil
}

// TypeText clears the element and types the text into it.
func (s *Session) TypeText(ctx context.Context, selector, text string) error {
	s.logger.Debug("typing", zap.String("selector", selector), zap.Int("chars", len(text)))
	err := s.interact(ctx, selector, chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	})
	if err != nil {
		return fmt.Errorf("typing into '%s': %w", selector, err)
	}
	return nil
}

// interact runs an element action under the implicit wait, mapping a
// wait expiry to NotFoundError.
func (s *Session) interact(ctx context.Context, selector string, action chromedp.Action) error {
	opCtx, opCancel := combineContext(s.browserCtx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, s.elementWait)
	defer waitCancel()

	if err := chromedp.Run(waitCtx, action); err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && opCtx.Err() == nil {
			return &provider.NotFoundError{Selector: selector, Wait: s.elementWait, Err: err}
		}
		return err
	}
	return nil
}

// returnKeyword matches the return keyword at word boundaries, so an
// identifier like returnValue does not trigger wrapping.
var returnKeyword = regexp.MustCompile(`\breturn\b`)

// wrapScript wraps scripts written in the "return expr;" style in an
// IIFE so the return value reaches the caller; plain expressions pass
// through untouched.
func wrapScript(script string) string {
	if returnKeyword.MatchString(script) {
		return fmt.Sprintf("(() => { %s })()", script)
	}
	return script
}

// ExecuteScript evaluates JavaScript in the page.
func (s *Session) ExecuteScript(ctx context.Context, script string, out any) error {
	expr := wrapScript(script)
	var action chromedp.Action
	if out != nil {
		action = chromedp.Evaluate(expr, out)
	} else {
		action = chromedp.Evaluate(expr, nil)
	}
	if err := s.run(ctx, action); err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	return nil
}

// Text returns the rendered text content of the first matching element.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	opCtx, opCancel := combineContext(s.browserCtx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, s.elementWait)
	defer waitCancel()

	var text string
	if err := chromedp.Run(waitCtx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && opCtx.Err() == nil {
			return "", &provider.NotFoundError{Selector: selector, Wait: s.elementWait, Err: err}
		}
		return "", fmt.Errorf("reading text of '%s': %w", selector, err)
	}
	return text, nil
}

// Attribute returns the named attribute of the first matching element.
// A present-but-empty attribute returns "" with no error; an absent
// attribute returns a *provider.NotFoundError.
func (s *Session) Attribute(ctx context.Context, selector, name string) (string, error) {
	opCtx, opCancel := combineContext(s.browserCtx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, s.elementWait)
	defer waitCancel()

	var value string
	var ok bool
	if err := chromedp.Run(waitCtx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery)); err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && opCtx.Err() == nil {
			return "", &provider.NotFoundError{Selector: selector, Wait: s.elementWait, Err: err}
		}
		return "", fmt.Errorf("reading attribute '%s' of '%s': %w", name, selector, err)
	}
	if !ok {
		return "", &provider.NotFoundError{Selector: selector + "[" + name + "]", Wait: s.elementWait}
	}
	return value, nil
}

// ScrollTo scrolls the first matching element into view.
func (s *Session) ScrollTo(ctx context.Context, selector string) error {
	if err := s.interact(ctx, selector, chromedp.ScrollIntoView(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("scrolling to '%s': %w", selector, err)
	}
	return nil
}

// Screenshot captures the viewport and writes it to the output store,
// returning the file path.
func (s *Session) Screenshot(ctx context.Context, name string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("screenshot requested but no output store configured")
	}
	var png []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&png)); err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	path, err := s.store.WriteScreenshot(name, png)
	if err != nil {
		return "", err
	}
	s.logger.Info("screenshot saved", zap.String("provider", s.name), zap.String("path", path))
	return path, nil
}

// Close disconnects from the browser and releases the vendor session.
// Safe to call multiple times; teardown runs once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		// Cancel the local CDP connection first so the vendor sees a
		// clean detach before the REST release lands.
		s.browserCancel()
		s.allocCancel()
		if s.release != nil {
			if err := s.release(ctx); err != nil {
				s.closeErr = fmt.Errorf("releasing %s session: %w", s.name, err)
				return
			}
		}
		s.logger.Debug("session closed", zap.String("provider", s.name))
	})
	return s.closeErr
}

// combineContext derives a context canceled when either input is done.
func combineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
