// Command idlecheck flags Cursor team members with long inactive streaks.
package main

import (
	"fmt"
	"os"

	"github.com/steven-giang-van/scripts-central/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
