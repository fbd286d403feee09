package session

import (
	"github.com/devicelab-dev/crashcheck/pkg/driver/appium"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
)

// AppiumFactory returns a Factory that opens W3C sessions on the Appium
// server at serverURL.
func AppiumFactory(serverURL string) Factory {
	return func(capabilities map[string]interface{}) (Remote, error) {
		client := appium.NewClient(serverURL)
		if err := client.Connect(capabilities); err != nil {
			return nil, err
		}
		logger.Info("Session %s created on %s (platform: %s)", client.SessionID(), serverURL, client.Platform())
		return client, nil
	}
}
