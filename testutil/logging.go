// Package testutil contains helpers shared by the package tests.
package testutil

import (
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	configureLogging(os.Args)
}

// configureLogging logs everything when tests run verbosely, and discards
// the output otherwise.
func configureLogging(args []string) {
	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose(args) {
		logrus.StandardLogger().Out = ioutil.Discard
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-test.v", "-test.v=true", "--test.v", "--test.v=true":
			return true
		}
	}

	return false
}
