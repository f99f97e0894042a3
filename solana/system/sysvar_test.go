package system

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSysVars(t *testing.T) {
	for _, k := range []ed25519.PublicKey{
		RentSysVar,
		ClockSysVar,
		SysVarOwnerKey,
		NativeLoaderKey,
		BPFLoaderKey,
	} {
		assert.Len(t, k, ed25519.PublicKeySize)
	}

	assert.NotEqual(t, RentSysVar, ClockSysVar)
	assert.Panics(t, func() {
		mustDecode("11")
	})
}
