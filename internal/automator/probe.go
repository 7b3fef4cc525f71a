package automator

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	// VS Code startup time is roughly constant, so a fixed interval is
	// intentional here - no exponential backoff.
	DefaultProbeAttempts = 30
	DefaultProbeInterval = 1 * time.Second
)

// versionURL is the CDP version descriptor endpoint.
func versionURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d/json/version", host, port)
}

// Probe polls the remote debugging endpoint until it serves a version
// descriptor. Network-level failures are swallowed and counted as "not ready
// yet". Returns an EndpointUnreachableError once the attempt budget is spent.
func Probe(ctx context.Context, host string, port, attempts int, interval time.Duration) error {
	return probeURL(ctx, versionURL(host, port), host, port, attempts, interval)
}

func probeURL(ctx context.Context, url, host string, port, attempts int, interval time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			ok := resp.StatusCode >= 200 && resp.StatusCode < 300
			resp.Body.Close()
			if ok {
				log.Printf("✅ Debug endpoint ready on %s:%d (attempt %d/%d)", host, port, attempt, attempts)
				return nil
			}
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return &EndpointUnreachableError{Host: host, Port: port, Attempts: attempts}
}
