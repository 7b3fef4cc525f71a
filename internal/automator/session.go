package automator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const workbenchTimeout = 30 * time.Second

// debugTarget is one entry of the /json target list.
type debugTarget struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	Title                string `json:"title"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Session is a bound workbench page. It is owned by exactly one automation
// run at a time; nothing inside it is safe for concurrent use.
type Session struct {
	ctx       context.Context
	closeOnce sync.Once
	cancels   []context.CancelFunc
}

// Bind connects to the debug endpoint, selects the first page target and
// asserts the workbench root marker is present before any automation runs.
func Bind(parent context.Context, host string, port int) (*Session, error) {
	targets, err := fetchTargets(parent, host, port)
	if err != nil {
		return nil, fmt.Errorf("failed to list debug targets: %w", err)
	}

	page := firstPageTarget(targets)
	if page == nil {
		return nil, &NoPageFoundError{Host: host, Port: port}
	}
	log.Printf("🎯 Binding to page target %s (title: %q)", page.ID, page.Title)

	debugURL := fmt.Sprintf("http://%s:%d", host, port)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(parent, debugURL)
	ctx, ctxCancel := chromedp.NewContext(allocCtx,
		chromedp.WithTargetID(target.ID(page.ID)),
		chromedp.WithLogf(func(string, ...interface{}) {}),
	)

	s := &Session{
		ctx:     ctx,
		cancels: []context.CancelFunc{ctxCancel, allocCancel},
	}

	// Smoke test the connection before waiting on the UI.
	var title string
	if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to page target: %w", err)
	}

	// A missing root marker means the workbench never finished booting its
	// UI, not a transient race - fatal, never retried.
	if err := WaitSelector(ctx, selectorWorkbench, StateVisible, workbenchTimeout); err != nil {
		s.Close()
		return nil, &WorkbenchNotLoadedError{Err: err}
	}

	log.Printf("✅ Workbench loaded (title: %q)", title)
	return s, nil
}

// fetchTargets retrieves the flat target list from the debug endpoint.
func fetchTargets(ctx context.Context, host string, port int) ([]debugTarget, error) {
	url := fmt.Sprintf("http://%s:%d/json", host, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var targets []debugTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to parse target list: %w", err)
	}
	return targets, nil
}

// firstPageTarget returns the first page-type target, or nil.
func firstPageTarget(targets []debugTarget) *debugTarget {
	for i := range targets {
		if targets[i].Type == "page" {
			return &targets[i]
		}
	}
	return nil
}

// Context exposes the bound page context for automation actions.
func (s *Session) Context() context.Context {
	return s.ctx
}

// DumpDOM returns the full document markup of the bound page.
func (s *Session) DumpDOM() (string, error) {
	var html string
	err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("failed to dump DOM: %w", err)
	}
	return html, nil
}

// Close tears the session down. Safe to call more than once; teardown
// happens exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}
