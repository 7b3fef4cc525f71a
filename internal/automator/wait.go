package automator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
)

// WaitSelector is the single synchronization primitive used by every wait in
// the automator, so timeout and error semantics stay consistent. visible and
// attached use chromedp's native waiters. hidden polls an injected predicate
// instead, because "hidden" must also hold when the node is detached from
// the DOM entirely, which the native not-visible wait does not cover.
func WaitSelector(ctx context.Context, selector string, state SelectorState, timeout time.Duration) error {
	timeoutErr := &SelectorTimeoutError{Selector: selector, State: state, Timeout: timeout}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	switch state {
	case StateVisible:
		err = chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	case StateAttached:
		err = chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	case StateHidden:
		var hidden bool
		err = chromedp.Run(waitCtx, chromedp.Poll(hiddenExpr(selector), &hidden,
			chromedp.WithPollingInterval(50*time.Millisecond),
			chromedp.WithPollingTimeout(timeout),
		))
	default:
		return fmt.Errorf("unknown selector state: %s", state)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
			return timeoutErr
		}
		// The page context itself may have been cancelled from above.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for %q (%s) failed: %w", selector, state, err)
	}
	return nil
}

// hiddenExpr is truthy when the element is absent or not rendered.
func hiddenExpr(selector string) string {
	q := strconv.Quote(selector)
	return `(() => { const el = document.querySelector(` + q + `); return !el || el.offsetParent === null; })()`
}
