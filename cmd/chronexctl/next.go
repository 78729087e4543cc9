package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"chronex/pkg/chronex"
)

func runNext(args []string) error {
	fs := flag.NewFlagSet("next", flag.ExitOnError)
	count := fs.Int("count", 5, "number of occurrences to print")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: chronexctl next -count N <expression>")
	}

	expr, err := chronex.Parse(fs.Arg(0))
	if err != nil {
		return err
	}

	now := time.Now()
	for _, t := range expr.Enumerate(now, *count) {
		fmt.Printf("%s  (%s)\n", t.Format(time.RFC3339), humanize.Time(t))
	}
	return nil
}
