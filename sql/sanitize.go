package sql

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError reports an invalid identifier, literal or clause. It is
// terminal; statements failing validation never reach the planner.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// safeIdentifier is the only shape accepted for table, column, alias and
// function names.
var safeIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects any identifier not matching the safe
// pattern. kind names the identifier's role in the error message.
func ValidateIdentifier(name string, kind string) error {
	if !safeIdentifier.MatchString(name) {
		return &ValidationError{Message: fmt.Sprintf("invalid %s: %q", kind, name)}
	}
	return nil
}

// sanitizeString strips NUL bytes and escapes quote and backslash
// characters so a string literal can never break out of its context.
func sanitizeString(value string) string {
	value = strings.ReplaceAll(value, "\x00", "")
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "'", "''")
	return value
}

// SanitizeValue sanitizes a literal value. Strings are cleaned, numeric,
// boolean, datetime and nil values pass through unchanged, and any other
// type is rejected.
func SanitizeValue(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return sanitizeString(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, time.Time:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unsupported literal type: %T", value)}
	}
}
