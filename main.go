package main

import (
	"os"

	"github.com/abhisek/signiz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
