package main

import (
	"os"

	"github.com/example/ieltsprep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
