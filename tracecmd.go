package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"i4.energy/across/headsetctl/trace"
)

// runTrace implements "headsetctl trace [-kind K] [-conn ID] FILE": it
// prints every matching event of a CBOR trace file as one JSON line.
func runTrace(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	kind := fs.String("kind", "", "only events of this category (FRAME, EXCHANGE, NOTIFICATION, STATE, ERROR)")
	conn := fs.String("conn", "", "only events of this connection id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: headsetctl trace [-kind K] [-conn ID] FILE")
	}

	filter := trace.Filter{ConnectionID: *conn}
	if *kind != "" {
		c, ok := trace.ParseCategory(strings.ToUpper(*kind))
		if !ok {
			return fmt.Errorf("unknown event kind %q", *kind)
		}
		filter.Category = &c
	}

	r, err := trace.Open(fs.Arg(0), filter)
	if err != nil {
		return err
	}
	defer r.Close()

	enc := json.NewEncoder(out)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
}
