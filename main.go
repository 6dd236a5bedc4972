package main

import (
	"os"

	"github.com/spigell/offer-predictor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
