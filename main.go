package main

import (
	"os"

	"github.com/hahahahacnm/medbank/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
