package main

import (
	"os"

	"github.com/boxfleet/boxfleet/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
