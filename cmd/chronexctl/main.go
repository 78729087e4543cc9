// Command chronexctl parses, validates, and runs chronex trigger
// definitions from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "validate":
		return runValidate(rest)
	case "describe":
		return runDescribe(rest)
	case "next":
		return runNext(rest)
	case "serve":
		return runServe(rest)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", sub)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: chronexctl <subcommand> [flags]

Subcommands:
  validate   Check a trigger definitions file for errors and warnings
  describe   Parse a single expression and print its canonical form
  next       Print the next N occurrences of an expression
  serve      Load a trigger file, run the scheduler, and hot-reload on changes

Run 'chronexctl <subcommand> -h' for subcommand flags.
`)
}
