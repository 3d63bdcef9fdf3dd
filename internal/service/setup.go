package service

import (
	"fmt"

	"fystack/internal/config"
	"fystack/internal/scan"
	"fystack/internal/store"
)

// Setup opens the database named by flags and builds a Service on it.
// The database is skipped entirely when neither the index cache nor the
// recent list is wanted. A database that cannot be opened, for example
// because another fystack process holds it, is logged and the service runs
// without a cache and with an in-memory recent list.
func Setup(flags *config.Flags, logger func(string)) (*Service, error) {
	if !flags.IndexCache && flags.RecentSize == 0 {
		return NewService(nil, &scan.FileScannerImpl{}, 0, logger), nil
	}

	db, err := store.Open(flags.DBPath, logger)
	if err != nil {
		if logger != nil {
			logger(fmt.Sprintf("Database unavailable, continuing without it: %v", err))
		}
		return NewService(nil, &scan.FileScannerImpl{}, flags.RecentSize, logger), nil
	}
	s := NewService(db, &scan.FileScannerImpl{}, flags.RecentSize, logger)
	s.IndexCache = flags.IndexCache
	return s, nil
}
