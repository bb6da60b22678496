// Command kerbeiros is a CLI front-end over pkg/client: it loads a
// configuration file, runs the AS-exchange against a configured KDC, and
// caches the resulting ticket.
package main

import (
	"fmt"
	"os"

	"github.com/himmelblau-idm/kerbeiros-sub001/cmd/kerbeiros/commands"
)

var (
	version = "dev"
)

func main() {
	commands.Version = version

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
