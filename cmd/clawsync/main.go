package main

import (
	"os"

	"github.com/bnema/clawsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
