package main

import (
	"os"

	"github.com/bekosirs/bekoctl/internal/client/commands"
)

func main() {
	os.Exit(commands.Execute())
}
