package main

import (
	"os"

	"github.com/shemshallah/quantum-foam-rng/cmd/foamrng/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
