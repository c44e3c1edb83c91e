package middleware

import (
	"context"
	"time"
)

// Observer receives authentication and rate-limit outcomes.
type Observer interface {
	AuthFailed(reason string)
	RateLimited(bucket string)
}

// Option configures Auth and RateLimit.
type Option func(*options)

type options struct {
	timeout  time.Duration
	observer Observer
}

// WithTimeout bounds each call to the user store or rate-limit store.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithObserver reports failures to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) context(parent context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, o.timeout)
}

func (o *options) authFailed(reason string) {
	if o.observer != nil {
		o.observer.AuthFailed(reason)
	}
}

func (o *options) rateLimited(bucket string) {
	if o.observer != nil {
		o.observer.RateLimited(bucket)
	}
}
