package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/bootstrap"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/version"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	envFile := flag.String("env", "", "Load environment variables from this file before reading config")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.Current().Fprint(os.Stdout)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		if err := runServer(*envFile); err != nil {
			log.Fatal().Err(err).Msg("Server stopped with error")
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Fleet identity server: login, second factor, OIDC")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the identity server")
	fmt.Println("\nOptions:")
	fmt.Println("  -env FILE        Load environment variables from FILE")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := config.Load()
	setupLogger(cfg)
	displayAppName()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bootstrap.Run(ctx, cfg)
}

// setupLogger writes human-readable output in development and JSON in production.
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.IsProduction {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.With().Str("app", version.App).Str("version", version.Current().Version).Logger()
}

func displayAppName() {
	figure.NewFigure(version.App, "cybermedium", true).Print()
	fmt.Println()
}
