package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Upstream is one JSON endpoint behind a circuit breaker.
type Upstream struct {
	name    string
	base    string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewUpstream(name, base, path string, timeout time.Duration, breaker *gobreaker.CircuitBreaker) *Upstream {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	return &Upstream{
		name:    name,
		base:    base,
		path:    path,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// GetJSON fetches the endpoint and decodes into out. While the breaker
// is open the call fails immediately without touching the network.
func (u *Upstream) GetJSON(ctx context.Context, out any) error {
	if u == nil {
		return fmt.Errorf("upstream not configured")
	}
	if u.base == "" {
		return fmt.Errorf("%s not configured", u.name)
	}
	_, err := u.breaker.Execute(func() (any, error) {
		return nil, u.fetch(ctx, out)
	})
	return err
}

func (u *Upstream) fetch(ctx context.Context, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.base+u.path, nil)
	if err != nil {
		return err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", u.name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", u.name, err)
	}
	return nil
}

// State exposes the breaker state for the request log line.
func (u *Upstream) State() gobreaker.State { return u.breaker.State() }
