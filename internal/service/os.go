package service

import "github.com/Skotchmaster/command_pilot/pkg/rules"

// ValidateOS lower-cases s and checks it against the stored enumeration.
func ValidateOS(s string) (string, error) {
	os, ok := rules.SupportedOS(s)
	if !ok {
		return "", ErrInvalidOS
	}
	return os, nil
}
