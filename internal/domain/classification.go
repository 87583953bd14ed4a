package domain

import (
	"fmt"
	"strings"
)

// Classification is the bucket assigned to a priced token at scan time.
type Classification string

const (
	ClassificationCore        Classification = "core"
	ClassificationRecoverable Classification = "recoverable"
	ClassificationDust        Classification = "dust"
	ClassificationUnsafe      Classification = "unsafe"

	// ClassificationPositions is the legacy name of recoverable.
	ClassificationPositions Classification = "positions"
)

// Canonical maps legacy labels onto their canonical form.
func (c Classification) Canonical() Classification {
	if c == ClassificationPositions {
		return ClassificationRecoverable
	}
	return c
}

// Equal compares two labels after canonicalization.
func (c Classification) Equal(other Classification) bool {
	return c.Canonical() == other.Canonical()
}

// ParseClassification parses a stored or user-supplied label.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(s))).Canonical()
	switch c {
	case ClassificationCore, ClassificationRecoverable, ClassificationDust, ClassificationUnsafe:
		return c, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}
