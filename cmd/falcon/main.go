package main

import (
	"os"

	"github.com/simonhull/firebird-suite/falcon/internal/commands"
	"github.com/simonhull/firebird-suite/falcon/pkg/output"
)

func main() {
	if err := commands.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}
