package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop, server
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
}

// ParseUserAgent parses a User-Agent string for the audit log.
// Payment gateways call with plain HTTP clients, which are reported as "server".
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	info := DeviceInfo{
		OS:    osName(parser),
		IsBot: parser.Bot(),
	}

	name, version := parser.Browser()
	switch {
	case name == "":
		info.Browser = "Unknown"
	case version != "":
		info.Browser = name + " " + version
	default:
		info.Browser = name
	}

	switch {
	case parser.Mobile() && strings.Contains(strings.ToLower(userAgent), "ipad"),
		parser.Mobile() && strings.Contains(strings.ToLower(userAgent), "tablet"):
		info.DeviceType = "tablet"
	case parser.Mobile():
		info.DeviceType = "mobile"
	case parser.OSInfo().Name == "" && !info.IsBot:
		info.DeviceType = "server"
	default:
		info.DeviceType = "desktop"
	}

	return info
}

func osName(parser *ua.UserAgent) string {
	osInfo := parser.OSInfo()
	if osInfo.Name == "" {
		return "Unknown"
	}
	if osInfo.Version != "" {
		return osInfo.Name + " " + osInfo.Version
	}
	return osInfo.Name
}
