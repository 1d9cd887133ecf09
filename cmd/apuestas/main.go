package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/cli"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander)

	flag.BoolVar(&cli.Verbose, "v", false, "debug logs on stderr")
	flag.Parse()

	// Ctrl+C cancela o comando, mas o flush do sync ainda roda no Close
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := commander.Execute(ctx)
	stop()
	os.Exit(int(code))
}
