package event

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/crashcheck/pkg/config"
	"github.com/devicelab-dev/crashcheck/pkg/core"
)

// XPath locators of the status field the sample app renders events into.
const (
	AndroidStatusXPath = "//android.widget.EditText"
	IOSStatusXPath     = `//XCUIElementTypeTextField[@name="status"]`
)

// StatusReader is the part of a session needed to read the status field.
type StatusReader interface {
	FindElements(strategy, value string) ([]string, error)
	GetElementText(elementID string) (string, error)
}

// StatusXPath returns the status field locator for platform.
func StatusXPath(platform config.Platform) string {
	if platform == config.IOS {
		return IOSStatusXPath
	}
	return AndroidStatusXPath
}

// StatusText returns the text of the first status field. A missing field is
// core.ErrElementNotFound: the app is not showing its main screen.
func StatusText(r StatusReader, platform config.Platform) (string, error) {
	xpath := StatusXPath(platform)
	ids, err := r.FindElements("xpath", xpath)
	if err != nil {
		return "", fmt.Errorf("find status field: %w", err)
	}
	if len(ids) == 0 {
		return "", core.ErrElementNotFound.WithMessage("status field not found").
			WithDetails(map[string]interface{}{"xpath": xpath})
	}
	text, err := r.GetElementText(ids[0])
	if err != nil {
		return "", fmt.Errorf("read status field: %w", err)
	}
	return text, nil
}

// ReadStatus returns the text of the first status field and whether it held
// a value. A missing field and an empty field both count as no value.
func ReadStatus(r StatusReader, platform config.Platform) (string, bool, error) {
	text, err := StatusText(r, platform)
	if errors.Is(err, core.ErrElementNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

// Capture reads the status field and parses it as an event.
func Capture(r StatusReader, platform config.Platform) (*Event, error) {
	text, ok, err := ReadStatus(r, platform)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrEmptyStatus
	}
	return Parse(text)
}
