// Command buildspec loads, validates and inspects frontend build
// configuration declarations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/buildspec/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
