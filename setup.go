package main

import (
	"fmt"

	"github.com/metcalfc/folio/internal/config"
	"github.com/metcalfc/folio/internal/content"
	"github.com/metcalfc/folio/internal/state"
	"github.com/rs/zerolog"
)

// openStore picks the Redis backend when a URL is configured and the state
// directory otherwise.
func openStore(cfg config.Config, logger zerolog.Logger) (*state.Store, error) {
	if cfg.RedisURL != "" {
		st, err := state.NewRedisStore(cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		return st, nil
	}
	st, err := state.NewFileStore(cfg.StateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return st, nil
}

// loadBook reads the book at path. An empty path gives a book without
// content, so every page renders as a placeholder.
func loadBook(path string) (*content.Book, error) {
	if path == "" {
		return content.NewBook("Untitled", nil), nil
	}
	book, err := content.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load book %q: %w", path, err)
	}
	return book, nil
}
