package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/command_pilot/pkg/rules"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func ValidateLogin(email, password string) FieldErrors {
	errs := FieldErrors{}
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !rules.ValidEmail(email):
		errs["email"] = "Email is invalid"
	}
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case utf8.RuneCountInString(password) < rules.LoginPasswordMin:
		errs["password"] = "Password must be at least 6 characters"
	}
	return errs
}

func ValidateRegister(username, email, password string) FieldErrors {
	errs := FieldErrors{}
	name := strings.TrimSpace(username)
	switch {
	case name == "":
		errs["username"] = "Username is required"
	case !rules.ValidUsername(name):
		errs["username"] = "Username must be between 3 and 30 characters"
	}
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !rules.ValidEmail(email):
		errs["email"] = "Email is invalid"
	}
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case utf8.RuneCountInString(password) < rules.PasswordMin:
		errs["password"] = "Password must be at least 8 characters"
	}
	return errs
}
