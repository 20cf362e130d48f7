package main

import (
	"fmt"
	"os"

	"schoolpulse/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Name(), err)
		os.Exit(cli.ExitCode(err))
	}
}
