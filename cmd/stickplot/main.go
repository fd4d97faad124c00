package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chrissnell/stickplot/internal/app"
	"github.com/chrissnell/stickplot/internal/constants"
	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml, stick_plot.yaml\n\t\t\t  SQLite: plots.db\n\t\t\t  Use 'config-convert' to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	plotName := flag.String("plot", "", "Render only the named plot")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stickplot %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	provider, err := config.Open(*cfgBackend, filename)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	if _, err := provider.LoadConfig(); err != nil {
		log.Errorf("Error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("stickplot %s rendering plots from %s", constants.Version, filename)

	application := app.New(provider, log.GetSugaredLogger())
	if _, err := application.RunPlots(ctx, *plotName); err != nil {
		if ctx.Err() != nil {
			log.Warnf("Run interrupted before all plots were rendered")
		}
		log.Errorf("Run failed: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
