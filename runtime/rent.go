package runtime

import (
	"encoding/binary"
	"math"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/sdk/program/src/rent.rs
	lamportsPerByteYear = 3480
	exemptionThreshold  = 2.0
	burnPercent         = 50

	// accountStorageOverhead is the per-account size charged on top of
	// its data.
	accountStorageOverhead = 128
)

// MinimumBalanceForRentExemption returns the lamports an account holding size
// bytes of data needs to be exempt from rent.
func MinimumBalanceForRentExemption(size uint64) uint64 {
	return uint64(float64((accountStorageOverhead+size)*lamportsPerByteYear) * exemptionThreshold)
}

// rentSysVarData is the bincode encoding of the Rent sysvar.
func rentSysVarData() []byte {
	b := make([]byte, 8+8+1)
	binary.LittleEndian.PutUint64(b, lamportsPerByteYear)
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(exemptionThreshold))
	b[16] = burnPercent
	return b
}
