// Command stencil renders dialect-aware SQL templates.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stencil/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stencil:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
