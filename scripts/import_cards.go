package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/inkwell-labs/lorcana-engine/internal/game/catalog"
)

// Converts a CSV card export into the YAML card file the engine loads.
//
//	go run scripts/import_cards.go data/cards_export.csv config/cards.yaml
func main() {
	csvPath := "data/cards_export.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := "config/cards.yaml"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Card Data Import ===")
	fmt.Printf("CSV file: %s\n", absPath)

	file, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	startTime := time.Now()
	defs, err := catalog.ImportCSV(file)
	if err != nil && len(defs) == 0 {
		log.Fatalf("Failed to import cards: %v", err)
	}
	if err != nil {
		log.Printf("Warning: some rows were skipped:\n%v", err)
	}
	fmt.Printf("Parsed %d cards\n", len(defs))

	// Registering every card checks types, keywords and duplicate ids.
	cat := catalog.New()
	valid := make([]*catalog.CardDefinition, 0, len(defs))
	failed := 0
	for _, def := range defs {
		if err := cat.Add(def); err != nil {
			log.Printf("Failed to import card %s: %v", def.ID, err)
			failed++
			continue
		}
		valid = append(valid, def)
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", outPath, err)
	}
	defer out.Close()
	if err := catalog.WriteYAML(out, valid); err != nil {
		log.Fatalf("Failed to write cards: %v", err)
	}

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("✓ Successfully imported: %d cards\n", len(valid))
	if failed > 0 {
		fmt.Printf("✗ Failed to import: %d cards\n", failed)
	}
	fmt.Printf("Time taken: %s\n", time.Since(startTime))
	fmt.Printf("Written to: %s\n", outPath)
	fmt.Println("\nAbilities are not part of the export; add them to the YAML by hand.")
}
