// Command epicflow runs epics over an action stream and inspects their
// journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/epicflow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
