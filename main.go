// Package main provides the entry point for the kisandost command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kisandost/kisandost-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
