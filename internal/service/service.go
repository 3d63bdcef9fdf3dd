// Package service ties stack opening to the index cache, the recent
// stacks list and directory scanning. Both binaries go through it.
package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"fystack/internal/openfile"
	"fystack/internal/recent"
	"fystack/internal/scan"
	"fystack/internal/stack"
)

// Store abstracts the database for easier testing and decoupling.
type Store interface {
	stack.IndexCache
	IndexedPaths() ([]string, error)
	CleanMissing() (int, error)
	LoadRecent() ([]string, error)
	SaveRecent(paths []string) error
	Close() error
}

// FileScanner abstracts file scanning.
type FileScanner interface {
	Run(dir string, logger scan.LoggerFunc) <-chan scan.FileItem
}

// Service is the main entry point for business logic.
type Service struct {
	Store      Store
	FileScan   FileScanner
	Logger     func(string)
	Recent     *recent.List
	IndexCache bool
}

// NewService constructs a new Service. store may be nil, which disables
// the index cache and keeps the recent list in memory only.
func NewService(store Store, fileScan FileScanner, recentSize int, logger func(string)) *Service {
	if logger == nil {
		logger = func(string) {}
	}
	s := &Service{
		Store:      store,
		FileScan:   fileScan,
		Logger:     logger,
		Recent:     recent.NewList(recentSize),
		IndexCache: store != nil,
	}
	if store != nil {
		paths, err := store.LoadRecent()
		if err != nil {
			s.Logger(fmt.Sprintf("Recent stacks unavailable: %v", err))
		}
		s.Recent.Replace(paths)
	}
	return s
}

func (s *Service) cache() stack.IndexCache {
	if s.Store == nil || !s.IndexCache {
		return nil
	}
	return s.Store
}

// OpenStack validates and opens path, then records it as recently used.
func (s *Service) OpenStack(path string) (*stack.Handle, error) {
	if err := openfile.Validate(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &stack.FileError{Path: path, Err: err}
	}

	h, err := stack.Open(abs, s.cache())
	if err != nil {
		s.Logger(fmt.Sprintf("Failed to open %s: %v", abs, err))
		return nil, err
	}
	w, ht := h.Shape()
	s.Logger(fmt.Sprintf("Opened %s: %d frames of %dx%d", abs, h.FrameCount(), w, ht))

	s.Recent.Record(abs)
	s.saveRecent()
	return h, nil
}

func (s *Service) saveRecent() {
	if s.Store == nil {
		return
	}
	if err := s.Store.SaveRecent(s.Recent.Items()); err != nil {
		s.Logger(fmt.Sprintf("Failed to save recent stacks: %v", err))
	}
}

// RecentStacks returns recently opened stacks, newest first.
func (s *Service) RecentStacks() []string {
	return s.Recent.Items()
}

// ForgetRecent drops path from the recent list.
func (s *Service) ForgetRecent(path string) {
	s.Recent.Remove(path)
	s.saveRecent()
}

// ClearRecent empties the recent list.
func (s *Service) ClearRecent() {
	s.Recent.Clear()
	s.saveRecent()
}

// Summary describes one stack found by ListStacks. Err is set when the
// file could not be opened.
type Summary struct {
	Path   string
	Frames int
	Width  int
	Height int
	Err    error
}

// ListStacks scans dir recursively for stack files and opens each one to
// report its frame count and shape. Results are sorted by path.
func (s *Service) ListStacks(dir string) ([]Summary, error) {
	if dir == "" {
		return nil, errors.New("directory required")
	}
	if s.FileScan == nil {
		return nil, errors.New("no file scanner configured")
	}

	var out []Summary
	items := s.FileScan.Run(dir, func(msg string) { s.Logger(fmt.Sprintf("ListStacks: %s", msg)) })
	for item := range items {
		sum := Summary{Path: item.Path}
		h, err := stack.Open(item.Path, s.cache())
		if err != nil {
			sum.Err = err
		} else {
			sum.Frames = h.FrameCount()
			sum.Width, sum.Height = h.Shape()
			h.Close()
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// IndexedStacks lists paths with a cached page table.
func (s *Service) IndexedStacks() ([]string, error) {
	if s.Store == nil {
		return nil, nil
	}
	return s.Store.IndexedPaths()
}

// CleanIndexCache drops cache entries for files that vanished or changed.
func (s *Service) CleanIndexCache() (int, error) {
	if s.Store == nil {
		return 0, nil
	}
	n, err := s.Store.CleanMissing()
	if err != nil {
		return 0, err
	}
	s.Logger(fmt.Sprintf("Index cache: removed %d stale entries", n))
	return n, nil
}

// Close closes the store.
func (s *Service) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
