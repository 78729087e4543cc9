package main

import (
	"flag"
	"fmt"
	"time"

	"chronex/pkg/chronex"
)

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: chronexctl describe <expression>")
	}

	expr, err := chronex.Parse(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Println("canonical:", expr.String())
	opts := expr.Options()
	if opts.Jitter != nil {
		fmt.Println("jitter:", opts.Jitter)
	}
	if opts.Stagger != nil {
		fmt.Println("stagger:", opts.Stagger)
	}
	if opts.Window != nil {
		fmt.Println("window:", opts.Window)
	}
	if opts.Max != nil {
		fmt.Println("max:", *opts.Max)
	}
	if len(opts.Tags) > 0 {
		fmt.Println("tags:", opts.Tags)
	}

	if next, ok := expr.NextOccurrence(time.Now()); ok {
		fmt.Println("next:", next.Format(time.RFC3339))
	} else {
		fmt.Println("next: (none)")
	}
	return nil
}
