// Command axiom stores and derives knowledge in a semantic coordinate space.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/axiom/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
