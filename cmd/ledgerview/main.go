package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fintab/ledgerview/internal/config"
	"github.com/fintab/ledgerview/internal/database"
	"github.com/fintab/ledgerview/internal/database/repository"
	"github.com/fintab/ledgerview/internal/prefs"
	"github.com/fintab/ledgerview/internal/testdata"
	"github.com/fintab/ledgerview/internal/tui"
	"github.com/fintab/ledgerview/internal/urlstate"
)

func main() {
	viewQuery := flag.String("view", "", "restore a shared view state, e.g. 'status=PENDING&sort=date.desc'")
	seed := flag.Int("seed", 120, "number of sample records to create when the database is empty")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	store := repository.NewRecordStore(db)

	if *seed > 0 {
		if err := seedIfEmpty(ctx, store, *seed); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	addr, err := urlstate.Parse(*viewQuery)
	if err != nil {
		log.Fatalf("parse view state: %v", err)
	}

	layout, err := prefs.OpenFileStore("ledgerview")
	if err != nil {
		log.Fatalf("open prefs: %v", err)
	}

	p := tea.NewProgram(tui.New(ctx, cfg, store, addr, layout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	// Print the final view state so the session can be shared or resumed.
	if encoded := addr.Encode(); encoded != "" {
		fmt.Printf("view state: %s\n", encoded)
	}
}

func seedIfEmpty(ctx context.Context, store *repository.RecordStore, n int) error {
	page, err := store.List(ctx, repository.Query{Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if page.Total > 0 {
		return nil
	}
	return testdata.Seed(ctx, store, n)
}
