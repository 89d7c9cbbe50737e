package main

import (
	"os"

	"github.com/idilsaglam/backlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
