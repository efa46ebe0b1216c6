// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package audit

import "strings"

// Device classes recorded on download and login events.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// DeviceType classifies a User-Agent string. Tablets are checked before
// phones since Android tablets omit "Mobile".
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return DeviceUnknown
	case containsAny(ua, "bot", "crawler", "spider", "curl/", "wget/"):
		return DeviceBot
	case containsAny(ua, "ipad", "tablet") || (strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		return DeviceTablet
	case containsAny(ua, "mobile", "iphone", "ipod", "android", "windows phone"):
		return DeviceMobile
	case containsAny(ua, "windows", "macintosh", "mac os x", "x11", "linux", "cros"):
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
