// Package mock provides a test double for the translate package interfaces.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/linguafluent/linguafluent/pkg/provider/translate"
)

// Provider is a mock implementation of translate.Provider.
type Provider struct {
	mu sync.Mutex

	// TranslateFunc, if set, handles every Translate call. It takes
	// precedence over Result and Err.
	TranslateFunc func(ctx context.Context, req translate.Request) (translate.Result, error)

	// Result is returned from Translate when TranslateFunc is nil.
	Result translate.Result

	// Err, if non-nil, is returned from Translate when TranslateFunc is nil.
	Err error

	// Requests records every request passed to Translate.
	Requests []translate.Request

	// Delay, if set, makes Translate block for the duration or until ctx is
	// done, whichever comes first.
	Delay time.Duration
}

// Translate records the request and returns the configured response.
func (p *Provider) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	fn := p.TranslateFunc
	res, err := p.Result, p.Err
	delay := p.Delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return translate.Result{}, ctx.Err()
		}
	}

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return translate.Result{}, err
	}
	return res, nil
}

// Calls returns a copy of the recorded requests. Thread-safe.
func (p *Provider) Calls() []translate.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]translate.Request, len(p.Requests))
	copy(out, p.Requests)
	return out
}

// Ensure Provider implements translate.Provider at compile time.
var _ translate.Provider = (*Provider)(nil)
