// Package locator resolves logical page elements through an ordered list
// of lookup strategies. Selectors on the target site degrade over time,
// so each logical element carries several strategies ordered from most
// precise (structural attribute match) to broadest (free-text match);
// the resolver tries them left to right and fails only after every one
// has individually timed out.
package locator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantry-tools/cubscrape/models"
)

// Kind identifies how a selector is interpreted.
type Kind string

const (
	// KindCSS matches by CSS selector.
	KindCSS Kind = "css"
	// KindXPath matches by XPath expression.
	KindXPath Kind = "xpath"
	// KindText matches clickable elements whose visible text matches
	// the selector, interpreted as a regular expression.
	KindText Kind = "text"
)

// Strategy is one (kind, selector) pair describing how to find a
// logical page element.
type Strategy struct {
	Kind     Kind
	Selector string
}

func (s Strategy) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Selector)
}

// Element is a located page element.
type Element interface {
	Click() error
	Input(text string) error
	Text() (string, error)
	Attribute(name string) (string, bool)
}

// Finder is the single-strategy lookup capability the resolver builds
// on. An implementation blocks up to timeout waiting for the element to
// appear and returns an error if it does not.
type Finder interface {
	Find(ctx context.Context, s Strategy, timeout time.Duration) (Element, error)
}

// Resolve tries each strategy in order against f, returning the first
// match. Each attempt blocks up to timeout and emits one diagnostic
// event whether it succeeds or fails. After every strategy has timed
// out, Resolve fails with ELEMENT_NOT_FOUND. Retry across the whole
// resolver is the caller's responsibility.
func Resolve(ctx context.Context, f Finder, timeout time.Duration, strategies ...Strategy) (Element, error) {
	if len(strategies) == 0 {
		return nil, models.NewExtractError(
			models.ErrCodeElementNotFound,
			"no locator strategies provided",
			nil,
		)
	}

	for _, s := range strategies {
		el, err := f.Find(ctx, s, timeout)
		if err == nil {
			slog.Debug("locator strategy matched", "strategy", s.String())
			return el, nil
		}
		slog.Warn("locator strategy failed",
			"strategy", s.String(),
			"error", err,
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, models.NewExtractError(
				models.ErrCodeElementNotFound,
				"locator canceled before all strategies were tried",
				ctxErr,
			)
		}
	}
	return nil, models.NewExtractError(
		models.ErrCodeElementNotFound,
		fmt.Sprintf("element not found after %d strategies", len(strategies)),
		nil,
	)
}
