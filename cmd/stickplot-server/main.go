package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/stickplot/internal/app"
	"github.com/chrissnell/stickplot/internal/constants"
	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/pkg/config"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-version]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Serves configured stick plots over HTTP. Settings come from the environment\n")
		fmt.Fprintf(os.Stderr, "(or a .env file) using the %s prefix:\n\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sLISTEN_ADDR     address to bind (default 0.0.0.0)\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sPORT            port to listen on (default 8080)\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sCONFIG          configuration source (default config.yaml)\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sCONFIG_BACKEND  yaml or sqlite (default yaml)\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sFETCH_TIMEOUT   per-request ERDDAP timeout (default 60s)\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sTLS_CERT, %sTLS_KEY  serve HTTPS when both are set\n", config.EnvPrefix, config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %sDEBUG           turn on debugging output\n", config.EnvPrefix)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("stickplot-server %s\n", constants.Version)
		os.Exit(0)
	}

	env, err := config.LoadServerEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(env.Debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, err := config.Open(env.ConfigBackend, env.ConfigPath)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	log.Infof("stickplot-server %s using %s configuration at %s", constants.Version, env.ConfigBackend, env.ConfigPath)

	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Serve(context.Background(), env); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}
