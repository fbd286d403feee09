package session

import (
	"fmt"

	"github.com/devicelab-dev/crashcheck/pkg/driver/appium"
)

// TapByAccessibilityID finds the element with the given accessibility id and clicks it.
func (p *Proxy) TapByAccessibilityID(id string) error {
	elem, err := p.FindElement(appium.ByAccessibilityID, id)
	if err != nil {
		return fmt.Errorf("find %q: %w", id, err)
	}
	if err := p.ClickElement(elem); err != nil {
		return fmt.Errorf("click %q: %w", id, err)
	}
	return nil
}

// HasAccessibilityID reports whether an element with the given accessibility id exists.
func (p *Proxy) HasAccessibilityID(id string) (bool, error) {
	ids, err := p.FindElements(appium.ByAccessibilityID, id)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// TextAt returns the text of the first element matching the XPath and
// whether such an element exists.
func (p *Proxy) TextAt(xpath string) (string, bool, error) {
	ids, err := p.FindElements(appium.ByXPath, xpath)
	if err != nil {
		return "", false, err
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	text, err := p.GetElementText(ids[0])
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}
