package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/ripixel/ironlog/pkg/domain/progression"
	infrastorage "github.com/ripixel/ironlog/pkg/infrastructure/storage"
	"github.com/ripixel/ironlog/pkg/recompute"
)

func main() {
	inputPath := flag.String("input", "", "Path to JSON history export")
	tracePath := flag.String("trace", "", "Path or gs:// URI of an archived replay trace (instead of -input)")
	verbose := flag.Bool("detailed-dump", false, "Print per-step state")
	plateau := flag.Int("plateau-threshold", progression.DefaultPlateauThreshold, "Consecutive non-successes before deload")
	jumpFraction := flag.Float64("too-large-jump-fraction", progression.DefaultTooLargeJumpFraction, "Jump fraction that expands the ceiling instead")
	deload := flag.Float64("deload-factor", progression.DefaultDeloadFactor, "Weight multiplier on deload")
	flag.Parse()

	if *tracePath != "" {
		trace, err := openTrace(*tracePath)
		if err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		printTrace(os.Stdout, trace, *verbose)
		return
	}

	policy, err := buildPolicy(*plateau, *jumpFraction, *deload)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if *inputPath == "" {
		fmt.Println("Please provide input file with -input or -trace")
		os.Exit(1)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	history, err := loadHistory(f)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	trace := replay(history, policy)
	printTrace(os.Stdout, &trace, *verbose)
}

func openTrace(path string) (*recompute.Trace, error) {
	if strings.HasPrefix(path, "gs://") {
		ctx := context.Background()
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		defer client.Close()
		return fetchTrace(ctx, &infrastorage.StorageAdapter{Client: client}, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return loadTrace(f)
}
