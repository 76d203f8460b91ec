// Command elocute is a local pronunciation practice server.
//
// Usage:
//
//	elocute [flags] <command> [args]
//
// Commands:
//
//	serve    - serve the practice page and API
//	review   - print a stored analysis result in the terminal
//	visemes  - map an IPA string to visemes
package main

import (
	"fmt"
	"os"

	"github.com/MrWong99/elocute/cmd/elocute/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "elocute: %v\n", err)
		os.Exit(1)
	}
}
