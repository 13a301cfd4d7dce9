package session

import (
	"net"
	"strings"
)

// Classify turns a raw device signal into the stored DeviceInfo. The
// browser/OS/device labels are heuristic substring matches on the
// client-supplied User-Agent and exist only for the session-listing UI.
func Classify(sig DeviceSignal) DeviceInfo {
	ua := strings.ToLower(sig.UserAgent)
	return DeviceInfo{
		UserAgent: sig.UserAgent,
		Browser:   classifyBrowser(ua),
		OS:        classifyOS(ua),
		Device:    classifyDevice(ua),
		IP:        sig.IP,
	}
}

func classifyBrowser(ua string) string {
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "edg/"), strings.Contains(ua, "edge/"):
		return "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident/"):
		return "Internet Explorer"
	case strings.Contains(ua, "curl/"):
		return "curl"
	default:
		return "Unknown"
	}
}

func classifyOS(ua string) string {
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipod"):
		return "iOS"
	case strings.Contains(ua, "ipad"):
		return "iPadOS"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

func classifyDevice(ua string) string {
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return "Tablet"
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"),
		strings.Contains(ua, "android"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

// MaskIP replaces the last two IPv4 octets (or everything past the first
// two IPv6 groups) so session listings never expose a full caller address.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "***"
	}
	if v4 := parsed.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		return parts[0] + "." + parts[1] + ".*.*"
	}
	groups := strings.Split(parsed.String(), ":")
	if len(groups) < 2 {
		return "***"
	}
	return groups[0] + ":" + groups[1] + ":***"
}
