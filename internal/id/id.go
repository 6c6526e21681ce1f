package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatChildCode returns a child code like "100001" for parent "100", seq 1,
// padding 3.
func FormatChildCode(parentCode string, seq, padding int) string {
	return parentCode + fmt.Sprintf("%0*d", padding, seq)
}

// ParseChildSuffix extracts the numeric suffix a child code adds to its
// parent's code. ok is false when the code does not extend the parent or the
// suffix is not numeric.
func ParseChildSuffix(parentCode, childCode string) (seq int, ok bool) {
	if !strings.HasPrefix(childCode, parentCode) {
		return 0, false
	}
	suffix := childCode[len(parentCode):]
	if suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NewReference returns a fresh transaction reference.
func NewReference() string {
	return uuid.NewString()
}

// DerivedReference returns the reference of a transaction produced from
// another one, e.g. "7f3c...-completion".
func DerivedReference(reference, action string) string {
	return reference + "-" + action
}
