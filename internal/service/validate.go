package service

import (
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/command_pilot/pkg/rules"
)

const (
	MsgFillRequired     = "Please fill required fields"
	MsgUserExists       = "User Already Exist Try With Diffrent Email Address"
	MsgEmailRequired    = "Please enter you email Id"
	MsgPasswordRequired = "Please enter you password"
	MsgInvalidLogin     = "Invalid email or password"
)

func ValidateUsername(username string) error {
	if !rules.ValidUsername(username) {
		return invalid("Username must be between 3 and 30 characters")
	}
	return nil
}

func validateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" || email == "" || password == "" {
		return invalid(MsgFillRequired)
	}
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if !rules.ValidEmail(email) {
		return invalid("Please enter a valid email")
	}
	if utf8.RuneCountInString(password) < rules.PasswordMin {
		return invalid("Password must be at least 8 characters")
	}
	return nil
}
