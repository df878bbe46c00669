package main

import (
	"fmt"
	"os"

	"civic/cmd/portalctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
