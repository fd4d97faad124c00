package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/stickplot/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		export     = flag.Bool("export", false, "Write the SQLite configuration out as YAML instead")
		force      = flag.Bool("force", false, "Overwrite an existing target file")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <plots.db> [-export]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	source, target := *yamlFile, *sqliteFile
	if *export {
		source, target = *sqliteFile, *yamlFile
	}

	if _, err := os.Stat(source); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: source file does not exist: %s\n", source)
		os.Exit(1)
	}
	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: target file already exists: %s\n", target)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	if *export {
		fmt.Printf("Exporting SQLite configuration to YAML...\n")
	} else {
		fmt.Printf("Converting YAML configuration to SQLite...\n")
	}
	fmt.Printf("  Source: %s\n", source)
	fmt.Printf("  Target: %s\n", target)

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
	}

	configData, err := load(source, *export)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Loaded %d plots\n", len(configData.Plots))

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - nothing written")
		return
	}

	if *force {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing target file: %v\n", err)
			os.Exit(1)
		}
	}

	if *export {
		err = writeYAML(target, configData)
	} else {
		err = writeSQLite(target, configData)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	if !*export {
		fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", target)
	}
}

func load(path string, fromSQLite bool) (*config.ConfigData, error) {
	backend := "yaml"
	if fromSQLite {
		backend = "sqlite"
	}
	provider, err := config.Open(backend, path)
	if err != nil {
		return nil, err
	}
	defer provider.Close()
	return provider.LoadConfig()
}

func writeSQLite(dbPath string, configData *config.ConfigData) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fmt.Printf("Creating SQLite database...\n")
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer provider.Close()

	fmt.Printf("  Inserting %d plots...\n", len(configData.Plots))
	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func writeYAML(path string, configData *config.ConfigData) error {
	out, err := config.MarshalYAML(configData)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Printf("\nPlots (%d):\n", len(configData.Plots))
	for _, p := range configData.Plots {
		view := p.View
		if view == "" {
			view = "2d"
		}
		fmt.Printf("  - %s: %s/%s, %g-%g m, %s view\n", p.Name, p.ServerURL, p.DatasetID, p.DepthRange[0], p.DepthRange[1], view)
	}
}
