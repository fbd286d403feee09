// Package config resolves the target platform, deployment profile and
// Appium capabilities for a crashcheck run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment switches.
const (
	EnvPlatform   = "CRASHCHECK_PLATFORM"
	EnvRemoteFarm = "CRASHCHECK_REMOTE_FARM"
	EnvAppiumURL  = "APPIUM_URL"
	EnvSentryAuth = "SENTRY_AUTH_TOKEN"
)

// DefaultServerURL is the local Appium endpoint.
const DefaultServerURL = "http://127.0.0.1:4723"

// Capability keys.
const (
	CapPlatformName    = "platformName"
	CapPlatformVersion = "platformVersion"
	CapDeviceName      = "deviceName"
	CapApp             = "app"
	CapNoReset         = "noReset"
	CapVerboseLog      = "showIOSLog"
)

// Platform is the target mobile platform.
type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// ParsePlatform accepts android/ios in any case. Empty means android.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "android":
		return Android, nil
	case "ios":
		return IOS, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want android or ios)", s)
	}
}

// Profile selects where the app runs.
type Profile string

const (
	// Local runs against a simulator or emulator next to the Appium server.
	Local Profile = "local"
	// Farm runs on a remote device farm that injects platform, device and app itself.
	Farm Profile = "farm"
)

// ParseProfile accepts local/farm in any case. Empty means local.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return Local, nil
	case "farm":
		return Farm, nil
	default:
		return "", fmt.Errorf("unknown profile %q (want local or farm)", s)
	}
}

// Target holds the per-platform session settings.
type Target struct {
	App             string `yaml:"app"`
	PlatformName    string `yaml:"platformName"`
	PlatformVersion string `yaml:"platformVersion"`
	DeviceName      string `yaml:"deviceName"`
}

// Sentry configures lookups of captured events through the Sentry web API.
type Sentry struct {
	BaseURL       string `yaml:"baseUrl"`
	Token         string `yaml:"-"`
	RetryCount    int    `yaml:"retryCount"`
	RetryInterval int    `yaml:"retryIntervalMs"`
}

// Config represents the run configuration (crashcheck.yaml plus environment).
type Config struct {
	ServerURL string   `yaml:"serverUrl"`
	Platform  Platform `yaml:"platform"`
	Profile   Profile  `yaml:"profile"`

	NoReset    bool `yaml:"noReset"`
	VerboseLog bool `yaml:"verboseLog"`

	Android Target `yaml:"android"`
	IOS     Target `yaml:"ios"`

	// Extra capabilities merged last, only for the local profile.
	Extra map[string]interface{} `yaml:"capabilities"`

	Sentry Sentry `yaml:"sentry"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ServerURL:  DefaultServerURL,
		Platform:   Android,
		Profile:    Local,
		NoReset:    true,
		VerboseLog: true,
		Android: Target{
			App:             "../android/app/build/outputs/apk/release/app-release.apk",
			PlatformName:    "Android",
			PlatformVersion: "10",
			DeviceName:      "Android Emulator",
		},
		IOS: Target{
			App:             "../ios/build/Build/Products/Release-iphonesimulator/AwesomeProject.app",
			PlatformName:    "iOS",
			PlatformVersion: "13.0",
			DeviceName:      "iPhone 11",
		},
		Sentry: Sentry{
			BaseURL:       "https://sentry.io/api/0/projects/sentry-sdks/sentry-react-native",
			RetryCount:    600,
			RetryInterval: 1000,
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Platform, err = ParsePlatform(string(cfg.Platform)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Profile, err = ParseProfile(string(cfg.Profile)); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for crashcheck.yaml or crashcheck.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"crashcheck.yaml", "crashcheck.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	return Default(), nil
}

// ApplyEnv overlays the environment switches onto cfg.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvPlatform); ok {
		p, err := ParsePlatform(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPlatform, err)
		}
		c.Platform = p
	}
	if v, ok := os.LookupEnv(EnvRemoteFarm); ok {
		if truthy(v) {
			c.Profile = Farm
		} else {
			c.Profile = Local
		}
	}
	if v := os.Getenv(EnvAppiumURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvSentryAuth); v != "" {
		c.Sentry.Token = v
	}
	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Target returns the settings for the selected platform.
func (c *Config) Target() Target {
	if c.Platform == IOS {
		return c.IOS
	}
	return c.Android
}

// Capabilities builds the flat capability map passed once at session creation.
// The farm profile leaves out platform, device and app fields.
func (c *Config) Capabilities() map[string]interface{} {
	caps := map[string]interface{}{
		CapNoReset: c.NoReset,
	}
	if c.VerboseLog {
		caps[CapVerboseLog] = true
	}

	if c.Profile == Farm {
		return caps
	}

	t := c.Target()
	setIfPresent(caps, CapPlatformName, t.PlatformName)
	setIfPresent(caps, CapPlatformVersion, t.PlatformVersion)
	setIfPresent(caps, CapDeviceName, t.DeviceName)
	if t.App != "" {
		caps[CapApp] = resolveApp(t.App)
	}

	for k, v := range c.Extra {
		caps[k] = v
	}
	return caps
}

func setIfPresent(caps map[string]interface{}, key, value string) {
	if value != "" {
		caps[key] = value
	}
}

// resolveApp makes relative file paths absolute. Bundle identifiers
// (no path separator, no app extension) are passed through.
func resolveApp(app string) string {
	if filepath.IsAbs(app) || strings.Contains(app, "://") {
		return app
	}
	ext := strings.ToLower(filepath.Ext(app))
	if !strings.ContainsRune(app, '/') && ext != ".apk" && ext != ".app" && ext != ".ipa" && ext != ".zip" {
		return app
	}
	if abs, err := filepath.Abs(app); err == nil {
		return abs
	}
	return app
}
