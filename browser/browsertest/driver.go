// Package browsertest provides a scripted in-memory browser.Driver for
// exercising the session controller and the order navigator against
// captured markup, with no real browser involved.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"github.com/pantry-tools/cubscrape/locator"
)

// Element is a scripted page element.
type Element struct {
	TextValue string
	Attrs     map[string]string
	ClickErr  error

	Clicks int
	Inputs []string

	// OnClick runs on every successful click, letting a script swap
	// the driver's current page.
	OnClick func()
}

func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Input(text string) error {
	e.Inputs = append(e.Inputs, text)
	return nil
}

func (e *Element) Text() (string, error) {
	return e.TextValue, nil
}

func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Driver is a scripted browser. Elements are keyed by strategy
// selector; a Find for an unknown selector fails like a locator
// timeout would.
type Driver struct {
	Elements map[string]*Element

	// Pages maps URLs to markup for Navigate.
	Pages map[string]string
	// CurrentHTML is what HTML() returns; Navigate and element OnClick
	// hooks mutate it.
	CurrentHTML string

	// OnBack, when set, restores the pre-detail page state.
	OnBack func()

	Navigations  []string
	BackCalls    int
	ClickAtCalls int
	FindAttempts []locator.Strategy
}

func New() *Driver {
	return &Driver{
		Elements: map[string]*Element{},
		Pages:    map[string]string{},
	}
}

func (d *Driver) Find(_ context.Context, s locator.Strategy, _ time.Duration) (locator.Element, error) {
	d.FindAttempts = append(d.FindAttempts, s)
	if el, ok := d.Elements[s.Selector]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("browsertest: no element scripted for %s", s)
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.Navigations = append(d.Navigations, url)
	if markup, ok := d.Pages[url]; ok {
		d.CurrentHTML = markup
	}
	return nil
}

func (d *Driver) HTML(context.Context) (string, error) {
	return d.CurrentHTML, nil
}

func (d *Driver) Back(context.Context) error {
	d.BackCalls++
	if d.OnBack != nil {
		d.OnBack()
	}
	return nil
}

func (d *Driver) ClickAt(context.Context, float64, float64) error {
	d.ClickAtCalls++
	return nil
}
