package match

import (
	"strings"

	"github.com/teranos/fuzzykea/errors"
)

// AAMode selects how input and reference amino acids must agree
type AAMode string

const (
	// ModeExact requires identical letters
	ModeExact AAMode = "exact"
	// ModeSTSimilar also pairs serine with threonine
	ModeSTSimilar AAMode = "st-similar"
	// ModeIgnore accepts any pair
	ModeIgnore AAMode = "ignore"
)

// Modes lists every supported mode
var Modes = []AAMode{ModeExact, ModeSTSimilar, ModeIgnore}

// ParseAAMode converts a config string into an AAMode.
// "st_similar" is accepted as an alias.
func ParseAAMode(s string) (AAMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return ModeExact, nil
	case "st-similar", "st_similar":
		return ModeSTSimilar, nil
	case "ignore":
		return ModeIgnore, nil
	}
	err := errors.Mark(errors.Newf("unknown amino-acid mode %q", s), errors.ErrInvalidConfig)
	return "", errors.WithHint(err, "allowed values: exact, st-similar, ignore")
}

// Compatible reports whether an input amino acid may match a reference one
func (m AAMode) Compatible(input, ref byte) bool {
	switch m {
	case ModeExact:
		return input == ref
	case ModeSTSimilar:
		return input == ref || (isST(input) && isST(ref))
	case ModeIgnore:
		return true
	}
	return false
}

func isST(aa byte) bool {
	return aa == 'S' || aa == 'T'
}

// Valid reports whether m is a supported mode
func (m AAMode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}
