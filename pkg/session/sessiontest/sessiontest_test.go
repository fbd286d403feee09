package sessiontest

import (
	"testing"

	"github.com/devicelab-dev/crashcheck/pkg/driver/mock"
	"github.com/devicelab-dev/crashcheck/pkg/session"
)

func TestScoped_QuitsOnCleanup(t *testing.T) {
	var created []*mock.Driver
	var p *session.Proxy

	t.Run("inner", func(t *testing.T) {
		p = Scoped(t, session.NewProxy(session.MockFactory(mock.Config{}, &created), nil))
		if _, err := p.Source(); err != nil {
			t.Fatal(err)
		}
	})

	if p.Active() {
		t.Error("session should be released after the subtest")
	}
	if len(created) != 1 || !created[0].Closed() {
		t.Error("underlying session was not disconnected")
	}
}

func TestScoped_NoSessionNoCreate(t *testing.T) {
	var created []*mock.Driver

	t.Run("inner", func(t *testing.T) {
		Scoped(t, session.NewProxy(session.MockFactory(mock.Config{}, &created), nil))
	})

	if len(created) != 0 {
		t.Error("cleanup must not create a session")
	}
}
