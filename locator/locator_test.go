package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pantry-tools/cubscrape/models"
)

type stubElement struct {
	text string
}

func (e *stubElement) Click() error                    { return nil }
func (e *stubElement) Input(string) error              { return nil }
func (e *stubElement) Text() (string, error)           { return e.text, nil }
func (e *stubElement) Attribute(string) (string, bool) { return "", false }

// stubFinder matches only the strategy whose selector equals match and
// records every attempt in order.
type stubFinder struct {
	match    string
	attempts []Strategy
}

func (f *stubFinder) Find(_ context.Context, s Strategy, _ time.Duration) (Element, error) {
	f.attempts = append(f.attempts, s)
	if s.Selector == f.match {
		return &stubElement{text: "found"}, nil
	}
	return nil, errors.New("no match")
}

func TestResolve_FallbackToLastStrategy(t *testing.T) {
	f := &stubFinder{match: "C"}
	strategies := []Strategy{
		{Kind: KindCSS, Selector: "A"},
		{Kind: KindXPath, Selector: "B"},
		{Kind: KindText, Selector: "C"},
	}

	el, err := Resolve(context.Background(), f, time.Second, strategies...)
	if err != nil {
		t.Fatalf("expected strategy C to match, got error: %v", err)
	}
	text, _ := el.Text()
	if text != "found" {
		t.Errorf("unexpected element text: %q", text)
	}
	if len(f.attempts) != 3 {
		t.Fatalf("expected 3 attempts (2 failures then success), got %d", len(f.attempts))
	}
	if f.attempts[0].Selector != "A" || f.attempts[1].Selector != "B" {
		t.Errorf("strategies tried out of order: %v", f.attempts)
	}
}

func TestResolve_FirstStrategyWins(t *testing.T) {
	f := &stubFinder{match: "A"}
	_, err := Resolve(context.Background(), f, time.Second,
		Strategy{Kind: KindCSS, Selector: "A"},
		Strategy{Kind: KindCSS, Selector: "B"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.attempts) != 1 {
		t.Errorf("expected the first match to short-circuit, got %d attempts", len(f.attempts))
	}
}

func TestResolve_AllStrategiesExhausted(t *testing.T) {
	f := &stubFinder{match: "nothing"}
	_, err := Resolve(context.Background(), f, time.Second,
		Strategy{Kind: KindCSS, Selector: "A"},
		Strategy{Kind: KindXPath, Selector: "B"},
		Strategy{Kind: KindText, Selector: "C"},
	)
	if err == nil {
		t.Fatal("expected an error when no strategy matches")
	}
	if !models.HasCode(err, models.ErrCodeElementNotFound) {
		t.Errorf("expected ELEMENT_NOT_FOUND, got: %v", err)
	}
	if len(f.attempts) != 3 {
		t.Errorf("expected all 3 strategies to be tried, got %d", len(f.attempts))
	}
}

func TestResolve_NoStrategies(t *testing.T) {
	f := &stubFinder{}
	_, err := Resolve(context.Background(), f, time.Second)
	if !models.HasCode(err, models.ErrCodeElementNotFound) {
		t.Errorf("expected ELEMENT_NOT_FOUND for empty strategy list, got: %v", err)
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &stubFinder{match: "nothing"}
	_, err := Resolve(ctx, f, time.Second,
		Strategy{Kind: KindCSS, Selector: "A"},
		Strategy{Kind: KindCSS, Selector: "B"},
	)
	if !models.HasCode(err, models.ErrCodeElementNotFound) {
		t.Errorf("expected ELEMENT_NOT_FOUND on cancellation, got: %v", err)
	}
	if len(f.attempts) != 1 {
		t.Errorf("expected cancellation after the first attempt, got %d attempts", len(f.attempts))
	}
}
