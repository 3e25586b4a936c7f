package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciphersql/studio/internal/catalog"
	"github.com/ciphersql/studio/internal/config"
	"github.com/ciphersql/studio/internal/domain"
	"github.com/ciphersql/studio/internal/storage"
)

var seedFileFlag string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load assignments into the catalog from a JSON file",
	Long: `Reads a JSON array of assignments and upserts each into the
catalog. Existing assignments with the same id are replaced, so the
command is safe to re-run after editing content.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFileFlag, "file", "data/assignments.json", "Path to the assignments JSON file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	raw, err := os.ReadFile(seedFileFlag)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var assignments []domain.Assignment
	if err := json.Unmarshal(raw, &assignments); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	store, err := storage.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer store.Close()

	catalogStore := catalog.NewStore(store)
	ctx := context.Background()

	for _, a := range assignments {
		saved, err := catalogStore.Upsert(ctx, a)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", a.Title, err)
		}
		fmt.Printf("seeded %s (%s)\n", saved.Title, saved.ID)
	}

	fmt.Printf("done: %d assignments\n", len(assignments))
	return nil
}
