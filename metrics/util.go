package metrics

import (
	"unicode"

	"github.com/pkg/errors"
)

// validateMetricName checks that name is usable by both statsd and
// prometheus backed clients.
func validateMetricName(name string) error {
	if len(name) == 0 {
		return errors.New("name cannot be empty")
	}

	for i, r := range name {
		switch {
		case i == 0 && !unicode.IsLetter(r):
			return errors.New("first character must be a letter")
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '.':
		default:
			return errors.Errorf("invalid character %q in metric name", r)
		}
	}

	return nil
}
