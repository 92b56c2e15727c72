// Command changeoracle generates model-based test paths for the change
// lifecycle protocol and replays them against the reference ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/changeoracle/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
