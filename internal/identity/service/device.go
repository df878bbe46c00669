package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceLabel renders a short "Browser on OS" label for a User-Agent.
func DeviceLabel(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	osName := ua.OS()
	if osName == "" {
		osName = ua.Platform()
	}
	if osName == "" {
		osName = "Unknown OS"
	}
	label := strings.TrimSpace(browser + " on " + osName)
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}
