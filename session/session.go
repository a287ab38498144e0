// Package session owns the authentication state machine for one scrape
// run. Every downstream navigation requires the AUTHENTICATED state;
// any structural surprise during login fails closed into LOGIN_FAILED
// rather than leaving the caller in an undefined intermediate state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pantry-tools/cubscrape/browser"
	"github.com/pantry-tools/cubscrape/config"
	"github.com/pantry-tools/cubscrape/locator"
	"github.com/pantry-tools/cubscrape/models"
)

// State is the controller's position in the login flow.
type State string

const (
	StateAnonymous            State = "ANONYMOUS"
	StateModalChecked         State = "MODAL_CHECKED"
	StateCredentialsSubmitted State = "CREDENTIALS_SUBMITTED"
	StateAuthenticated        State = "AUTHENTICATED"
	StateLoginFailed          State = "LOGIN_FAILED"
)

// authenticatedLabel is what the account-identity control shows once
// login succeeded.
const authenticatedLabel = "My Account"

// Controller drives the login flow over a browser Driver.
type Controller struct {
	drv     browser.Driver
	site    config.SiteConfig
	timeout time.Duration
	state   State
}

// New returns a Controller in the ANONYMOUS state.
func New(drv browser.Driver, site config.SiteConfig, locatorTimeout time.Duration) *Controller {
	return &Controller{
		drv:     drv,
		site:    site,
		timeout: locatorTimeout,
		state:   StateAnonymous,
	}
}

// State returns the current authentication state.
func (c *Controller) State() State {
	return c.state
}

// Authenticated reports whether login completed.
func (c *Controller) Authenticated() bool {
	return c.state == StateAuthenticated
}

// RequireAuth gates downstream navigation on a completed login.
func (c *Controller) RequireAuth() error {
	if c.state != StateAuthenticated {
		return models.NewExtractError(
			models.ErrCodeNotAuth,
			fmt.Sprintf("navigation requires authentication, state is %s", c.state),
			nil,
		)
	}
	return nil
}

// Authenticate walks ANONYMOUS → MODAL_CHECKED → CREDENTIALS_SUBMITTED
// → AUTHENTICATED. On any failure the controller lands in LOGIN_FAILED
// and the returned error carries the LOGIN_FAILED code.
func (c *Controller) Authenticate(ctx context.Context) error {
	// 1. Load the landing page and clear any interstitial overlay
	if err := c.drv.Navigate(ctx, c.site.BaseURL); err != nil {
		return c.fail("failed to load landing page", err)
	}
	slog.Info("landing page loaded", "url", c.site.BaseURL)
	c.dismissOverlay(ctx)
	c.transition(StateModalChecked)

	// 2. Open the sign-in form and submit credentials
	signIn, err := locator.Resolve(ctx, c.drv, c.timeout,
		locator.Strategy{Kind: locator.KindXPath, Selector: "//button[contains(text(), 'Sign In')]"},
		locator.Strategy{Kind: locator.KindText, Selector: "Sign In"},
	)
	if err != nil {
		return c.fail("sign-in control not found", err)
	}
	if err := signIn.Click(); err != nil {
		return c.fail("sign-in control not clickable", err)
	}

	username, err := locator.Resolve(ctx, c.drv, c.timeout,
		locator.Strategy{Kind: locator.KindCSS, Selector: "#signInName"},
		locator.Strategy{Kind: locator.KindXPath, Selector: "//input[@id='signInName']"},
	)
	if err != nil {
		return c.fail("username input not found", err)
	}
	password, err := locator.Resolve(ctx, c.drv, c.timeout,
		locator.Strategy{Kind: locator.KindCSS, Selector: "#password"},
		locator.Strategy{Kind: locator.KindXPath, Selector: "//input[@id='password']"},
	)
	if err != nil {
		return c.fail("password input not found", err)
	}
	if err := username.Input(c.site.Username); err != nil {
		return c.fail("could not enter username", err)
	}
	if err := password.Input(c.site.Password); err != nil {
		return c.fail("could not enter password", err)
	}
	slog.Info("credentials entered")

	submit, err := locator.Resolve(ctx, c.drv, c.timeout,
		locator.Strategy{Kind: locator.KindXPath, Selector: "//button[contains(text(), 'Continue')]"},
		locator.Strategy{Kind: locator.KindText, Selector: "Continue"},
	)
	if err != nil {
		return c.fail("continue control not found", err)
	}
	if err := submit.Click(); err != nil {
		return c.fail("continue control not clickable", err)
	}
	c.transition(StateCredentialsSubmitted)

	// 3. Verify the account header shows the signed-in label
	account, err := locator.Resolve(ctx, c.drv, c.timeout,
		locator.Strategy{Kind: locator.KindCSS, Selector: "#AccountHeaderButton"},
		locator.Strategy{Kind: locator.KindXPath, Selector: "//button[@id='AccountHeaderButton']"},
	)
	if err != nil {
		return c.fail("account-identity control not found", err)
	}
	label, err := account.Text()
	if err != nil {
		return c.fail("account-identity control unreadable", err)
	}
	if !strings.Contains(label, authenticatedLabel) {
		return c.fail(fmt.Sprintf("account control shows %q, not %q", label, authenticatedLabel), nil)
	}

	c.transition(StateAuthenticated)
	slog.Info("login successful")
	return nil
}

// dismissOverlay closes the interstitial overlay when present by
// clicking outside it. Best effort: absence is not an error.
func (c *Controller) dismissOverlay(ctx context.Context) {
	overlayTimeout := c.timeout
	if overlayTimeout > 2*time.Second {
		overlayTimeout = 2 * time.Second
	}
	_, err := c.drv.Find(ctx, locator.Strategy{
		Kind:     locator.KindCSS,
		Selector: "#outside-modal",
	}, overlayTimeout)
	if err != nil {
		return
	}
	slog.Info("dismissing interstitial overlay")
	if err := c.drv.ClickAt(ctx, 10, 10); err != nil {
		slog.Warn("overlay dismissal click failed", "error", err)
	}
}

func (c *Controller) transition(to State) {
	slog.Debug("session state transition", "from", c.state, "to", to)
	c.state = to
}

func (c *Controller) fail(msg string, cause error) error {
	c.state = StateLoginFailed
	slog.Error("login failed", "reason", msg, "error", cause)
	return models.NewExtractError(models.ErrCodeLoginFailed, msg, cause)
}
