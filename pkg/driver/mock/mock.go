// Package mock provides an in-memory automation session that simulates the
// sample app, for running scenarios without a device.
package mock

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/devicelab-dev/crashcheck/pkg/driver/appium"
)

// Status field locators of the sample app.
const (
	AndroidStatusXPath = "//android.widget.EditText"
	IOSStatusXPath     = `//XCUIElementTypeTextField[@name="status"]`
)

const statusElementID = "status"

// Config configures mock session behavior.
type Config struct {
	// Platform is android or ios; it changes the payloads and the status locator.
	Platform string

	// Errors returned by the corresponding calls. The lifecycle errors are
	// returned after the action took effect, like the real servers do.
	ConnectErr    error
	DisconnectErr error
	CloseAppErr   error
	LaunchAppErr  error
	// FindErr fails every element lookup.
	FindErr error
}

// Driver is a mock remote session backed by a simulated sample app.
type Driver struct {
	Config Config

	mu       sync.Mutex
	calls    []string
	running  bool
	closed   bool
	launches int

	status  string
	release string
	dist    string
	pending map[string]interface{} // crash report delivered on next launch
}

// New creates a mock driver with the app already launched.
func New(cfg Config) *Driver {
	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	return &Driver{
		Config:   cfg,
		running:  true,
		launches: 1,
		release:  defaultRelease(cfg.Platform),
	}
}

// Factory returns a session factory function producing fresh mock drivers.
// Each created driver is also passed to onCreate when it is non-nil.
func Factory(cfg Config, onCreate func(*Driver)) func(map[string]interface{}) (*Driver, error) {
	return func(map[string]interface{}) (*Driver, error) {
		if cfg.ConnectErr != nil {
			return nil, cfg.ConnectErr
		}
		d := New(cfg)
		if onCreate != nil {
			onCreate(d)
		}
		return d, nil
	}
}

// Calls returns the recorded calls in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Launches returns how many times the app process was started.
func (d *Driver) Launches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launches
}

// Closed reports whether Disconnect was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Status returns the current status field text.
func (d *Driver) Status() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Driver) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Driver) usable() error {
	if d.closed {
		return &appium.WebDriverError{Code: "invalid session id", Message: "session was deleted", Status: 404}
	}
	return nil
}

func noSuchElement(value string) error {
	return &appium.WebDriverError{
		Code:    "no such element",
		Message: fmt.Sprintf("element %q could not be located", value),
		Status:  404,
	}
}

func (d *Driver) statusXPath() string {
	if d.Config.Platform == "ios" {
		return IOSStatusXPath
	}
	return AndroidStatusXPath
}

// FindElement resolves accessibility ids of the sample app buttons and the status field XPath.
func (d *Driver) FindElement(strategy, value string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("find %s=%s", strategy, value)

	if err := d.usable(); err != nil {
		return "", err
	}
	if d.Config.FindErr != nil {
		return "", d.Config.FindErr
	}
	if !d.running {
		return "", noSuchElement(value)
	}

	switch strategy {
	case appium.ByAccessibilityID:
		if isButton(value) {
			return "button:" + value, nil
		}
	case appium.ByXPath:
		if value == d.statusXPath() {
			return statusElementID, nil
		}
	}
	return "", noSuchElement(value)
}

// FindElements returns zero or one match.
func (d *Driver) FindElements(strategy, value string) ([]string, error) {
	id, err := d.FindElement(strategy, value)
	if err != nil {
		if appium.IsNoSuchElement(err) {
			return nil, nil
		}
		return nil, err
	}
	return []string{id}, nil
}

// ClickElement presses a sample app button.
func (d *Driver) ClickElement(elementID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("click %s", elementID)

	if err := d.usable(); err != nil {
		return err
	}
	if !d.running {
		return &appium.WebDriverError{Code: "stale element reference", Message: "app is not running", Status: 404}
	}

	const prefix = "button:"
	if len(elementID) <= len(prefix) || elementID[:len(prefix)] != prefix {
		return nil
	}
	d.press(elementID[len(prefix):])
	return nil
}

// GetElementText returns the status text.
func (d *Driver) GetElementText(elementID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("text %s", elementID)

	if err := d.usable(); err != nil {
		return "", err
	}
	if elementID == statusElementID {
		return d.status, nil
	}
	return "", nil
}

// GetElementAttribute returns name for the status field and nothing else.
func (d *Driver) GetElementAttribute(elementID, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("attribute %s.%s", elementID, name)

	if err := d.usable(); err != nil {
		return "", err
	}
	if elementID == statusElementID && name == "name" {
		return statusElementID, nil
	}
	return "", nil
}

// IsElementDisplayed reports whether the app is in the foreground.
func (d *Driver) IsElementDisplayed(elementID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("displayed %s", elementID)

	if err := d.usable(); err != nil {
		return false, err
	}
	return d.running, nil
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("screenshot")

	if err := d.usable(); err != nil {
		return nil, err
	}
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// Source returns a minimal page source.
func (d *Driver) Source() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("source")

	if err := d.usable(); err != nil {
		return "", err
	}
	if d.Config.Platform == "ios" {
		return `<AppiumAUT><XCUIElementTypeApplication name="AwesomeProject"/></AppiumAUT>`, nil
	}
	return `<hierarchy><android.widget.EditText/></hierarchy>`, nil
}

// Disconnect ends the session, then returns Config.DisconnectErr.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("disconnect")

	d.closed = true
	d.running = false
	return d.Config.DisconnectErr
}

// CloseApp stops the app, then returns Config.CloseAppErr.
func (d *Driver) CloseApp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("close app")

	if err := d.usable(); err != nil {
		return err
	}
	d.running = false
	d.status = ""
	return d.Config.CloseAppErr
}

// LaunchApp starts the app, delivering any pending crash report, then
// returns Config.LaunchAppErr.
func (d *Driver) LaunchApp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("launch app")

	if err := d.usable(); err != nil {
		return err
	}
	d.running = true
	d.launches++
	d.status = ""
	if d.pending != nil {
		d.status = encode(d.pending)
		d.pending = nil
	}
	return d.Config.LaunchAppErr
}

func encode(event map[string]interface{}) string {
	data, err := json.Marshal(event)
	if err != nil {
		return ""
	}
	return string(data)
}
