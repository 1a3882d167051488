package limiter

import (
	"net/http"

	"golang.org/x/time/rate"
)

type Transport interface {
	Limiter
	http.RoundTripper
}

type limitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

// NewTransport delays outgoing requests until the limiter allows them.
func NewTransport(l *rate.Limiter, base http.RoundTripper) Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &limitedTransport{
		limiter: l,
		base:    base,
	}
}

func (t *limitedTransport) limiterSetup() {
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	return t.base.RoundTrip(req)
}
