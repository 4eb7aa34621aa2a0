// Package rules holds the account and platform rules shared by the server and
// the terminal client.
package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Supported platform values.
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSMac     = "mac"
)

const (
	UsernameMin      = 3
	UsernameMax      = 30
	PasswordMin      = 8
	LoginPasswordMin = 6
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidUsername reports whether the trimmed name has an allowed length.
func ValidUsername(username string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(username))
	return n >= UsernameMin && n <= UsernameMax
}

// NormalizeOS maps a free-form platform name onto linux, windows or mac.
// "darwin" contains "win", so mac is checked first.
func NormalizeOS(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "mac"), strings.Contains(s, "darwin"):
		return OSMac
	case strings.Contains(s, "win"):
		return OSWindows
	default:
		return OSLinux
	}
}

// SupportedOS lower-cases and trims s and reports whether it is a stored value.
func SupportedOS(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case OSLinux, OSWindows, OSMacOS, OSMac:
		return s, true
	}
	return "", false
}
