package main

import (
	"fmt"
	"os"

	"github.com/danmuck/sbewire/internal/observability"
)

func main() {
	observability.InitLogger("sbectl")
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sbectl: %v\n", err)
		os.Exit(1)
	}
}
