package main

import (
	"flag"
	"fmt"
	"io"

	"pipelined.dev/render/catalog"
)

type listCommand struct{}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available processor types"
}

func (cmd *listCommand) Register(*flag.FlagSet) {}

func (cmd *listCommand) Run(w io.Writer) error {
	fmt.Fprintln(w, "Available processors:")
	for _, t := range catalog.Types() {
		fmt.Fprintf(w, "\t%s\n", t)
	}
	return nil
}
