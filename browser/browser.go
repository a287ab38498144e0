// Package browser owns the single headless-browser session a scrape run
// drives. It implements the capability surface the rest of the engine
// consumes (navigate, find, click, type, markup, back) on top of Rod,
// so everything above it can be exercised against a fake driver.
package browser

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"golang.org/x/time/rate"

	"github.com/pantry-tools/cubscrape/config"
	"github.com/pantry-tools/cubscrape/locator"
	"github.com/pantry-tools/cubscrape/models"
)

// Driver is the browser capability consumed by the session controller
// and the navigator. Session is the Rod-backed implementation; tests
// substitute fakes.
type Driver interface {
	locator.Finder

	// Navigate loads url and waits for the DOM to settle.
	Navigate(ctx context.Context, url string) error
	// HTML returns the current rendered markup.
	HTML(ctx context.Context) (string, error)
	// Back returns to the previous page. The underlying page reloads,
	// so callers must re-resolve anything they held before.
	Back(ctx context.Context) error
	// ClickAt clicks at a viewport coordinate. Used to dismiss
	// interstitial overlays that swallow clicks on real elements.
	ClickAt(ctx context.Context, x, y float64) error
}

// Session is the Rod-backed Driver. One Session owns one browser
// process and one page; it is not shared across concurrent runs.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	limiter *rate.Limiter
}

// NewSession launches a headless browser, opens a single page with
// stealth and resource blocking installed, and wires the navigation
// rate limiter.
func NewSession(cfg config.BrowserConfig, navRatePerSecond float64) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewExtractError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewExtractError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.MustClose()
		return nil, models.NewExtractError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	// Stealth JS and resource blocking only take effect for
	// navigations installed before them.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr,
		)
	}
	router := setupResourceBlocking(page)

	limit := rate.Limit(navRatePerSecond)
	if navRatePerSecond <= 0 {
		limit = rate.Inf
	}

	return &Session{
		browser: b,
		page:    page,
		router:  router,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Navigate loads the URL after passing the politeness limiter and waits
// for the DOM to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.NewExtractError(models.ErrCodeNavigation, "navigation canceled", err)
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return models.NewExtractError(models.ErrCodeNavigation, "navigation failed", err)
	}
	s.waitSettled(p)
	return nil
}

// Find implements locator.Finder for a single strategy, blocking up to
// timeout for the element to appear.
func (s *Session) Find(ctx context.Context, strat locator.Strategy, timeout time.Duration) (locator.Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)

	var el *rod.Element
	var err error
	switch strat.Kind {
	case locator.KindCSS:
		el, err = p.Element(strat.Selector)
	case locator.KindXPath:
		el, err = p.ElementX(strat.Selector)
	case locator.KindText:
		// Visible-text match over clickable elements only; matching
		// "*" would always hit the document root first.
		el, err = p.ElementR("button, a", regexp.QuoteMeta(strat.Selector))
	default:
		return nil, models.NewExtractError(
			models.ErrCodeElementNotFound,
			"unknown locator kind: "+string(strat.Kind),
			nil,
		)
	}
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

// HTML returns the page's rendered markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", models.NewExtractError(models.ErrCodeNavigation, "failed to extract page HTML", err)
	}
	return html, nil
}

// Back navigates to the previous history entry and waits for the DOM
// to settle.
func (s *Session) Back(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return models.NewExtractError(models.ErrCodeNavigation, "failed to navigate back", err)
	}
	s.waitSettled(p)
	return nil
}

// ClickAt moves the mouse to a viewport coordinate and clicks.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	p := s.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return err
	}
	return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// Close kills the browser process. Call on shutdown to prevent zombie
// Chrome processes.
func (s *Session) Close() {
	slog.Info("browser session shutting down")
	if err := s.router.Stop(); err != nil {
		slog.Warn("hijack router did not stop cleanly", "error", err)
	}
	s.browser.MustClose()
	slog.Info("browser session closed")
}

func (s *Session) waitSettled(p *rod.Page) {
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
}

// rodElement adapts *rod.Element to locator.Element.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}
