package main

import (
	"fmt"
	"os"

	"github.com/avrkit-project/avrkit-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "avrkit: %v\n", err)
		os.Exit(1)
	}
}
