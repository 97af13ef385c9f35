// Package place owns slot identity. A place string is always the
// concatenation of its box id and sub-slot id; it is derived here and
// nowhere else, so a caller-supplied place can never diverge from its
// components.
package place

import (
	"fmt"
	"strings"
)

// MaxBoxIDLen is the conventional upper bound on box identifiers.
const MaxBoxIDLen = 2

// Derive builds the unique place identity for a slot from its components.
func Derive(boxID, subID string) string {
	return boxID + subID
}

// ValidateComponents checks that the parts of a place are usable before any
// store access.
func ValidateComponents(boxID, subID string) error {
	boxID = strings.TrimSpace(boxID)
	subID = strings.TrimSpace(subID)
	if boxID == "" {
		return fmt.Errorf("box id must not be empty")
	}
	if subID == "" {
		return fmt.Errorf("sub id must not be empty")
	}
	if len(boxID) > MaxBoxIDLen {
		return fmt.Errorf("box id %q exceeds %d characters", boxID, MaxBoxIDLen)
	}
	return nil
}
