// Command trigconf generates the command sequence document for the fake
// trigger modules.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/trigconf/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Usage and flag errors are not reported by the commands.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
