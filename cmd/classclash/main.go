package main

import (
	"os"

	"github.com/dqninh/classclash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
