// Package useragent maps raw User-Agent header strings onto the small, fixed
// taxonomy stored alongside visit events. Matching is deliberately a
// precedence-ordered substring table rather than a full UA parser: the stored
// values feed the dashboard breakdowns and must stay stable across releases.
package useragent

import "strings"

const Unknown = "Unknown"

// Browser values.
const (
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserFirefox = "Firefox"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
)

// Device classes.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// Operating systems.
const (
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSAndroid = "Android"
	OSiOS     = "iOS"
)

// Classification is the write-time result stored on each visit event.
type Classification struct {
	Browser     string
	DeviceClass string
	OS          string
}

// Classify derives browser, device class and operating system from a raw
// User-Agent string. Case-insensitive, first match wins. An empty string
// yields {Unknown, Desktop, Unknown}: absence of mobile/tablet markers means
// desktop, not unknown device.
func Classify(raw string) Classification {
	ua := strings.ToLower(raw)
	return Classification{
		Browser:     classifyBrowser(ua),
		DeviceClass: classifyDevice(ua),
		OS:          classifyOS(ua),
	}
}

func classifyBrowser(ua string) string {
	switch {
	// Chromium UAs also contain "safari"; Edge UAs contain both "chrome"
	// and "edg". Order of checks carries the disambiguation.
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		return BrowserChrome
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return BrowserSafari
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		return BrowserOpera
	default:
		return Unknown
	}
}

func classifyDevice(ua string) string {
	switch {
	case strings.Contains(ua, "mobile"):
		return DeviceMobile
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

func classifyOS(ua string) string {
	switch {
	// Precedence mirrors the stored history: Android UAs carry "linux" and
	// iOS UAs carry "mac os", so those land on Linux/macOS here. Reordering
	// the checks would fork the taxonomy against rows classified before.
	case strings.Contains(ua, "windows"):
		return OSWindows
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macos") || strings.Contains(ua, "macintosh"):
		return OSMacOS
	case strings.Contains(ua, "linux"):
		return OSLinux
	case strings.Contains(ua, "android"):
		return OSAndroid
	case strings.Contains(ua, "ios") || strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return OSiOS
	default:
		return Unknown
	}
}
