package anchor

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// DiscriminatorSize is the size of the prefix that identifies instructions
// and accounts.
const DiscriminatorSize = 8

// Discriminator returns the first 8 bytes of sha256("<namespace>:<name>").
func Discriminator(namespace, name string) [DiscriminatorSize]byte {
	h := sha256.Sum256([]byte(namespace + ":" + name))

	var d [DiscriminatorSize]byte
	copy(d[:], h[:DiscriminatorSize])
	return d
}

// InstructionDiscriminator returns the discriminator of the instruction with
// the provided snake_case name.
func InstructionDiscriminator(name string) [DiscriminatorSize]byte {
	return Discriminator("global", name)
}

// AccountDiscriminator returns the discriminator of the account type with
// the provided PascalCase name.
func AccountDiscriminator(name string) [DiscriminatorSize]byte {
	return Discriminator("account", name)
}

// PascalCase converts a snake_case name to PascalCase.
func PascalCase(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
