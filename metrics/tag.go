package metrics

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// TagOption specifies a tag that should be added to a metric
type TagOption func() string

// WithTypeTag adds a "type" tag to a metric. This is typically used to
// differentiate metrics from different implementations of an interface.
func WithTypeTag(typeName string) TagOption {
	return func() string {
		return "type:" + typeName
	}
}

// WithServiceTag adds a "service" tag to a metric.
func WithServiceTag(serviceName string) TagOption {
	return func() string {
		return "service:" + serviceName
	}
}

// WithProgramTag adds a "program" tag with the base58 program address.
func WithProgramTag(program ed25519.PublicKey) TagOption {
	return func() string {
		return "program:" + base58.Encode(program)
	}
}

// WithResultTag adds a "result" tag, such as "success" or "failure".
func WithResultTag(result string) TagOption {
	return func() string {
		return "result:" + result
	}
}

// GetTags returns a slice of tags given a set of TagOptions
func GetTags(opts ...TagOption) []string {
	tags := make([]string, 0, len(opts))
	for _, opt := range opts {
		tags = append(tags, opt())
	}
	return tags
}
