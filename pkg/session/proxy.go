// Package session wraps a remote automation session behind a proxy that
// connects lazily and tolerates unreliable teardown and relaunch calls.
//
// The proxy moves between two states only:
//
//	no session --(first forwarded call)--> active --(Quit)--> no session
//
// Forwarded calls propagate every error. Quit and RelaunchApp go through the
// Lifecycle boundary, whose errors are logged and dropped: the Appium servers
// these suites run against report failure for those calls even when the
// session was deleted or the app restarted.
package session

import (
	"fmt"

	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
)

// Session is the set of operations forwarded unchanged to the remote session.
type Session interface {
	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	ClickElement(elementID string) error
	GetElementText(elementID string) (string, error)
	GetElementAttribute(elementID, name string) (string, error)
	IsElementDisplayed(elementID string) (bool, error)
	Screenshot() ([]byte, error)
	Source() (string, error)
}

// Lifecycle holds the calls whose errors the transport misreports.
// Only Quit and RelaunchApp invoke them.
type Lifecycle interface {
	Disconnect() error
	CloseApp() error
	LaunchApp() error
}

// Remote is a live automation session.
type Remote interface {
	Session
	Lifecycle
}

// Factory opens a new remote session with the given capabilities.
type Factory func(capabilities map[string]interface{}) (Remote, error)

// Proxy owns at most one Remote, created on first use.
// It is not safe for concurrent use; one proxy serves one test.
type Proxy struct {
	factory      Factory
	capabilities map[string]interface{}
	remote       Remote
	created      int
}

// NewProxy returns a proxy that opens sessions through factory. The
// capabilities are copied, so later changes to the caller's map have no effect.
func NewProxy(factory Factory, capabilities map[string]interface{}) *Proxy {
	caps := make(map[string]interface{}, len(capabilities))
	for k, v := range capabilities {
		caps[k] = v
	}
	return &Proxy{factory: factory, capabilities: caps}
}

// Active reports whether a session is currently held.
func (p *Proxy) Active() bool {
	return p.remote != nil
}

// Created returns how many sessions this proxy has opened.
func (p *Proxy) Created() int {
	return p.created
}

// Capabilities returns a copy of the capabilities used for session creation.
func (p *Proxy) Capabilities() map[string]interface{} {
	caps := make(map[string]interface{}, len(p.capabilities))
	for k, v := range p.capabilities {
		caps[k] = v
	}
	return caps
}

func (p *Proxy) session() (Remote, error) {
	if p.remote != nil {
		return p.remote, nil
	}

	logger.Info("Creating automation session")
	remote, err := p.factory(p.Capabilities())
	if err != nil {
		logger.Error("Session creation failed: %v", err)
		return nil, core.ErrSessionCreate.WithCause(err)
	}
	if remote == nil {
		return nil, core.ErrSessionCreate.WithCause(fmt.Errorf("factory returned no session"))
	}

	p.remote = remote
	p.created++
	return remote, nil
}

// FindElement implements Session.
func (p *Proxy) FindElement(strategy, value string) (string, error) {
	s, err := p.session()
	if err != nil {
		return "", err
	}
	return s.FindElement(strategy, value)
}

// FindElements implements Session.
func (p *Proxy) FindElements(strategy, value string) ([]string, error) {
	s, err := p.session()
	if err != nil {
		return nil, err
	}
	return s.FindElements(strategy, value)
}

// ClickElement implements Session.
func (p *Proxy) ClickElement(elementID string) error {
	s, err := p.session()
	if err != nil {
		return err
	}
	return s.ClickElement(elementID)
}

// GetElementText implements Session.
func (p *Proxy) GetElementText(elementID string) (string, error) {
	s, err := p.session()
	if err != nil {
		return "", err
	}
	return s.GetElementText(elementID)
}

// GetElementAttribute implements Session.
func (p *Proxy) GetElementAttribute(elementID, name string) (string, error) {
	s, err := p.session()
	if err != nil {
		return "", err
	}
	return s.GetElementAttribute(elementID, name)
}

// IsElementDisplayed implements Session.
func (p *Proxy) IsElementDisplayed(elementID string) (bool, error) {
	s, err := p.session()
	if err != nil {
		return false, err
	}
	return s.IsElementDisplayed(elementID)
}

// Screenshot implements Session.
func (p *Proxy) Screenshot() ([]byte, error) {
	s, err := p.session()
	if err != nil {
		return nil, err
	}
	return s.Screenshot()
}

// Source implements Session.
func (p *Proxy) Source() (string, error) {
	s, err := p.session()
	if err != nil {
		return "", err
	}
	return s.Source()
}

// Quit ends the session if there is one. Teardown errors are logged and
// dropped, and the proxy always ends up without a session.
func (p *Proxy) Quit() {
	if p.remote == nil {
		return
	}
	remote := p.remote
	p.remote = nil
	unreliable("quit", remote.Disconnect)
}

// RelaunchApp restarts the app process while keeping the session, so the
// proxy can keep talking to the new process. Without a session there is no
// app to restart and the call does nothing.
func (p *Proxy) RelaunchApp() {
	if p.remote == nil {
		logger.Debug("Relaunch requested without a session, skipping")
		return
	}
	logger.Info("Relaunching app")
	// Launch runs even when close reported an error.
	unreliable("close app", p.remote.CloseApp)
	unreliable("launch app", p.remote.LaunchApp)
}

// unreliable runs a Lifecycle call and drops its error.
func unreliable(op string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("Ignoring %s error (reported on success by the server): %v", op, err)
		return
	}
	logger.Debug("%s completed", op)
}
