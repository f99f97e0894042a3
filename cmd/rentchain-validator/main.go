// Command rentchain-validator runs a single node ledger with the RentChain
// program deployed, and serves it over the Solana JSON-RPC API.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/app"
)

func main() {
	if err := app.Run(newValidator()); err != nil {
		logrus.StandardLogger().WithError(err).Error("error running validator")
		os.Exit(1)
	}
}
