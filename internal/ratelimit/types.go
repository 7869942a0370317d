package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// Scope indicates which identity a limiter key is built from.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopeClient keys on the authenticated token subject.
	ScopeClient
	// ScopeAddress keys on the remote address when no subject is known.
	ScopeAddress
)

// String returns the scope name used in logs.
func (s Scope) String() string {
	switch s {
	case ScopeClient:
		return "client"
	case ScopeAddress:
		return "address"
	default:
		return "none"
	}
}
