// Package main is the entry point for reel.
package main

import (
	"github.com/reel-cli/reel/cmd"
	"github.com/reel-cli/reel/config"
	"github.com/reel-cli/reel/internal/sweep"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/where"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// engines killed with the terminal leave their sockets behind
	sweep.CollectGarbage(where.Sockets())

	cmd.Execute()
}
