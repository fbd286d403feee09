package mock

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sample app buttons, by accessibility id.
const (
	ButtonSendMessage = "send message"
	ButtonThrowError  = "throw error"
	ButtonNativeCrash = "native crash"
	ButtonSetVersion  = "set version"
	ButtonSetRelease  = "set release"
	ButtonSetDist     = "set dist"
)

func isButton(name string) bool {
	switch name {
	case ButtonSendMessage, ButtonThrowError, ButtonNativeCrash,
		ButtonSetVersion, ButtonSetRelease, ButtonSetDist:
		return true
	}
	return false
}

func defaultRelease(platform string) string {
	if platform == "ios" {
		return "org.reactjs.native.example.AwesomeProject-1.0"
	}
	return "com.awesomeproject.full-1.0"
}

func versionRelease(platform string) string {
	if platform == "ios" {
		return "org.reactjs.native.example.AwesomeProject-1337"
	}
	return "com.awesomeproject.full-1337"
}

// press applies a button tap to the simulated app. Caller holds d.mu.
func (d *Driver) press(name string) {
	switch name {
	case ButtonSendMessage:
		d.status = encode(d.messageEvent())
	case ButtonSetVersion:
		d.release = versionRelease(d.Config.Platform)
	case ButtonSetRelease:
		d.release = "myversion"
	case ButtonSetDist:
		d.dist = "500"
	case ButtonThrowError:
		// Android sends the JS crash before dying and shows nothing on the
		// next launch; iOS stores it and renders it after relaunch.
		if d.Config.Platform == "ios" {
			d.pending = d.jsCrashEvent()
		}
		d.crash()
	case ButtonNativeCrash:
		d.pending = d.nativeCrashEvent()
		d.crash()
	}
}

func (d *Driver) crash() {
	d.running = false
	d.status = ""
}

func (d *Driver) baseEvent(level string) map[string]interface{} {
	ev := map[string]interface{}{
		"event_id":  newEventID(),
		"level":     level,
		"release":   d.release,
		"timestamp": float64(time.Now().Unix()),
		"tags":      map[string]interface{}{"react": "1"},
		"extra":     map[string]interface{}{"react": true},
		"user":      map[string]interface{}{"id": "42", "email": "john@apple.com"},
		"breadcrumbs": []interface{}{
			map[string]interface{}{"category": "touch", "message": "Touch event within element"},
		},
		"contexts": map[string]interface{}{
			"device": map[string]interface{}{"simulator": true},
			"os":     map[string]interface{}{"name": d.Config.Platform},
		},
	}
	if d.dist != "" {
		ev["dist"] = d.dist
	}
	if d.Config.Platform == "ios" {
		ev["platform"] = "cocoa"
		ev["sdk"] = map[string]interface{}{
			"name":         "sentry-react-native",
			"integrations": []interface{}{"sentry-cocoa"},
		}
	} else {
		ev["platform"] = "java"
		ev["sdk"] = map[string]interface{}{
			"name":         "sentry-react-native",
			"integrations": []interface{}{"sentry-java"},
		}
	}
	return ev
}

func (d *Driver) messageEvent() map[string]interface{} {
	ev := d.baseEvent("warning")
	ev["message"] = "TEST message"
	return ev
}

func jsFrame(fn string) map[string]interface{} {
	return map[string]interface{}{
		"function": fn,
		"filename": "app:///index.android.bundle",
		"platform": "javascript",
	}
}

func nativeFrame(fn string) map[string]interface{} {
	return map[string]interface{}{
		"function":         fn,
		"package":          "/private/var/containers/Bundle/Application/AwesomeProject.app/AwesomeProject",
		"instruction_addr": "0x100a2c3d4",
	}
}

func (d *Driver) jsCrashEvent() map[string]interface{} {
	ev := d.baseEvent("fatal")
	ev["exception"] = map[string]interface{}{
		"values": []interface{}{
			map[string]interface{}{
				"type":  "Error",
				"value": "Sentry: Test throw error",
				"stacktrace": map[string]interface{}{
					"frames": []interface{}{
						nativeFrame("RCTJSThreadManager"),
						jsFrame("throwError"),
						jsFrame("onPress"),
					},
				},
			},
		},
	}
	return ev
}

func (d *Driver) nativeCrashEvent() map[string]interface{} {
	ev := d.baseEvent("fatal")
	ev["exception"] = map[string]interface{}{
		"values": []interface{}{
			map[string]interface{}{
				"type":  "EXC_BAD_ACCESS",
				"value": "crash > SentryCrash",
				"stacktrace": map[string]interface{}{
					"frames": []interface{}{
						nativeFrame("-[RNSentry crash]"),
						jsFrame("nativeCrash"),
						jsFrame("onPress"),
					},
				},
			},
		},
	}
	ev["threads"] = map[string]interface{}{
		"values": []interface{}{
			map[string]interface{}{"id": 0, "crashed": true, "current": true},
		},
	}
	ev["debug_meta"] = map[string]interface{}{
		"images": []interface{}{
			map[string]interface{}{"type": "apple", "code_file": "AwesomeProject", "image_addr": "0x100000000"},
		},
	}
	return ev
}

// newEventID returns a Sentry style id: 32 hex digits, no dashes.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
