package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/cli"
	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entrypoint"
	"github.com/newtechs/backend/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	command := "serve"
	var args []string
	if len(os.Args) >= 2 {
		command, args = os.Args[1], os.Args[2:]
	}

	switch command {
	case "-h", "--help", "help":
		printUsage()
		return
	case "hash-admin-token":
		cmd := cli.NewHashAdminTokenCommand()
		exitOnError(cmd.ParseFlags(args))
		exitOnError(cmd.Run())
		return
	}

	cfg := config.NewConfig()
	logger, err := logging.New(cfg.Logging)
	exitOnError(err)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		err = entrypoint.Run(cfg, logger.With(zap.String("commit", Commit)), Version)

	case "import":
		cmd := cli.NewImportCommand(cfg, logger)
		if err = cmd.ParseFlags(args); err == nil {
			err = cmd.Run(ctx)
		}

	case "setup-blogs":
		cmd := cli.NewSetupBlogsCommand(cfg, logger)
		if err = cmd.ParseFlags(args); err == nil {
			err = cmd.Run(ctx)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Sync() //nolint:errcheck
	}
	exitOnError(err)
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve             Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import            Import Blogger Atom exports into blogs\n")
	fmt.Fprintf(os.Stderr, "  setup-blogs       Create the blog catalog\n")
	fmt.Fprintf(os.Stderr, "  hash-admin-token  Generate the hash for ADMIN_TOKEN_HASH\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
