package config

import "fmt"

type MissingEnvError struct {
	Name string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required env %s", e.Name)
}

func MustNonEmpty(value, envName string) error {
	if value == "" {
		return &MissingEnvError{Name: envName}
	}
	return nil
}

func MustNonEmptyBytes(value []byte, envName string) error {
	if len(value) == 0 {
		return &MissingEnvError{Name: envName}
	}
	return nil
}
