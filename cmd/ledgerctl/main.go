// Command ledgerctl operates on the warehouse ledger from the shell, using the
// same configuration as the server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var (
	envFile = flag.String("env", "", "Path to an env file (defaults to .env when present)")
	verbose = flag.Bool("v", false, "Log at debug level")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
