// Command portfolioctl values the tracked wallets from the command line and
// watches a running tracker.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/pkg/logger"

	"github.com/google/subcommands"
)

func main() {
	cfg := config.LoadConfig()
	if err := logger.Initialize(&logger.Config{
		Level:       getLogLevel(),
		Environment: cfg.Logging.Environment,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(cfg) {
		commander.Register(c, "")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	_ = logger.GetLogger().Sync()
	os.Exit(int(status))
}

// getLogLevel keeps the CLI quiet unless LOG_LEVEL asks otherwise
func getLogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "warn"
}
