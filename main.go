package main

import (
	"fmt"
	"os"

	"github.com/OrderLab/go-zklatency/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Latency test failed: %v\n", err)
		os.Exit(1)
	}
}
