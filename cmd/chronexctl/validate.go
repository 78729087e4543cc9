package main

import (
	"flag"
	"fmt"
	"os"

	cfgpkg "chronex/internal/config"
	"chronex/pkg/chronex"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: chronexctl validate <trigger-file>")
	}

	store := cfgpkg.NewTriggerStore(fs.Arg(0))
	defs, err := store.Parse()
	if err != nil {
		return fmt.Errorf("parse trigger file: %w", err)
	}

	failed := 0
	for _, d := range defs {
		res := chronex.Validate(d.Expression)
		for _, w := range res.Warnings {
			fmt.Printf("%s: warning: %s\n", d.ID, w.String())
		}
		for _, e := range res.Errors {
			fmt.Printf("%s: error: %s\n", d.ID, e.String())
		}
		if !res.IsValid() {
			failed++
		}
	}

	fmt.Printf("%d trigger(s) checked, %d invalid\n", len(defs), failed)
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
