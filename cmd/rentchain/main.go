// Command rentchain is a client for the RentChain program.
package main

import (
	"os"

	"github.com/rentchain/rentchain-go/cmd/rentchain/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
