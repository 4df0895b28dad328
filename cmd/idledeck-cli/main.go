package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmarcon/idledeck/internal/game"
	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "play":
		runPlay(os.Args[2:])
	case "simulate":
		runSimulate(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  idledeck play [--config FILE] [--save-dir DIR]")
	fmt.Println("  idledeck simulate [--config FILE] [--draws N] [--seed S]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  play      Run a headless session, printing events until Ctrl+C")
	fmt.Println("  simulate  Monte-Carlo check of the configured rarity weight tables")
}

func runPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	configFile := fs.String("config", "", "path to config YAML")
	saveDir := fs.String("save-dir", "save", "directory for file-backed saves")
	fs.Parse(args)

	cfg, err := game.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st, err := store.NewFileStore(*saveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session, err := game.NewSession(cfg, st, log.NewTextLogger(os.Stdout), nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	session.Close()
}

func runSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configFile := fs.String("config", "", "path to config YAML")
	draws := fs.Int("draws", 100000, "number of draws per table")
	seed := fs.Uint64("seed", 1, "RNG seed")
	fs.Parse(args)

	cfg, err := game.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tables := []struct {
		name  string
		bands []game.RarityWeight
	}{
		{"shop", cfg.ShopWeights},
		{"battle bonus", cfg.BattleBonusWeights},
	}
	for _, tbl := range tables {
		if err := simulateTable(tbl.name, tbl.bands, *draws, *seed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// simulateTable draws N rarities from one weight table and prints observed
// frequency against the configured expectation per band.
func simulateTable(name string, bands []game.RarityWeight, draws int, seed uint64) error {
	table, err := game.NewLootTable(bands)
	if err != nil {
		return fmt.Errorf("%s table: %w", name, err)
	}
	rng := game.NewSeededRNG(seed)

	counts := make(map[game.Rarity]int)
	for i := 0; i < draws; i++ {
		counts[table.PickRarity(rng)]++
	}

	var total float64
	for _, band := range bands {
		total += band.Weight
	}

	fmt.Printf("%s table, %d draws:\n", name, draws)
	worst := 0.0
	for _, band := range bands {
		want := band.Weight / total
		got := float64(counts[band.Rarity]) / float64(draws)
		dev := math.Abs(got - want)
		if dev > worst {
			worst = dev
		}
		fmt.Printf("  %-10s want %6.3f  got %6.3f  dev %6.4f\n", band.Rarity, want, got, dev)
	}
	fmt.Printf("  max deviation %.4f\n\n", worst)
	return nil
}
