// Package sessiontest provides helpers for tests that drive a session.Proxy.
package sessiontest

import (
	"testing"

	"github.com/devicelab-dev/crashcheck/pkg/session"
)

// Scoped ties p to the lifetime of tb: Quit runs during cleanup whatever the
// test outcome.
func Scoped(tb testing.TB, p *session.Proxy) *session.Proxy {
	tb.Helper()
	tb.Cleanup(p.Quit)
	return p
}
