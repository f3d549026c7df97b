package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits
const (
	MaxJSONSize       = 1 * 1024 * 1024 // 1MB - maximum request body size
	MaxNameLength     = 128
	MaxValuesPerStore = 65536
	MaxValuesPerSort  = 16384 // quadratic sort
)

// NamePattern allows alphanumeric, dots, hyphens, underscores
var NamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateProcessName validates a process name
func ValidateProcessName(name string) error {
	if err := ValidateString(name, "name", 1, MaxNameLength, true); err != nil {
		return err
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("name contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)")
	}

	return nil
}

// ValidateValueCount checks a value batch against limit.
func ValidateValueCount(n, limit int) error {
	if n > limit {
		return fmt.Errorf("too many values: %d (maximum %d)", n, limit)
	}
	return nil
}
