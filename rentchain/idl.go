package rentchain

import (
	"github.com/rentchain/rentchain-go/anchor"
)

// IDL is the Anchor IDL of the program.
const IDL = `{
  "address": "BaGvznHhNmC5LxVyCjWYmPZoCViqCXyUXvtJc7quy6eW",
  "metadata": {
    "name": "rentchain_anchor",
    "version": "0.1.0",
    "spec": "0.1.0",
    "description": "Created with Anchor"
  },
  "instructions": [
    {
      "name": "initialize",
      "discriminator": [175, 175, 109, 31, 13, 152, 155, 237],
      "accounts": [],
      "args": []
    }
  ]
}`

// ParseIDL returns the parsed IDL.
func ParseIDL() (*anchor.IDL, error) {
	return anchor.ParseIDL([]byte(IDL))
}
