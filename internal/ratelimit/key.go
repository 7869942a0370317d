package ratelimit

import "strings"

// KeyFor builds a limiter key, preferring the token subject over the remote address.
func KeyFor(subject, remoteAddr string) (string, Scope) {
	if s := strings.TrimSpace(subject); s != "" {
		return "c:" + s, ScopeClient
	}
	if a := strings.TrimSpace(remoteAddr); a != "" {
		return "ip:" + a, ScopeAddress
	}
	return "", ScopeNone
}
