package metrics

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTags(t *testing.T) {
	program := make(ed25519.PublicKey, ed25519.PublicKeySize)

	tags := GetTags(
		WithTypeTag("memory"),
		WithServiceTag("validator"),
		WithProgramTag(program),
		WithResultTag("success"),
	)
	assert.Equal(t, []string{
		"type:memory",
		"service:validator",
		"program:11111111111111111111111111111111",
		"result:success",
	}, tags)

	assert.Empty(t, GetTags())
}
