package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/willowgs/viciharvest/internal/model"
)

// DefaultWorkListFile is the default work-list file name.
const DefaultWorkListFile = ".viciharvest"

// ErrWorkListNotFound is returned when the work-list file does not exist.
var ErrWorkListNotFound = errors.New("work-list file not found")

// WorkList is the YAML work-list file format. It names the works to
// harvest and may override entries in the curated chapter table.
type WorkList struct {
	// Works are the work entries to harvest.
	Works []WorkEntry `yaml:"works"`

	// Curated maps a work title to its ordered chapter subpage titles,
	// overriding or extending the built-in curated table.
	Curated map[string][]string `yaml:"curated"`
}

// WorkEntry is a single work in the work-list file.
type WorkEntry struct {
	// Title is the wiki page title.
	Title string `yaml:"title"`

	// Priority is one of critical, high, medium, normal. Empty means
	// normal.
	Priority string `yaml:"priority"`

	// IndexHint marks the work as a known index page.
	IndexHint bool `yaml:"index_hint"`
}

// LoadWorkList loads a work list from a YAML file.
// If the file does not exist, it returns ErrWorkListNotFound. Callers
// should handle this based on whether the path was explicitly specified
// by the user.
func LoadWorkList(path string) (*WorkList, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided work-list path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrWorkListNotFound
		}
		return nil, err
	}

	var wl WorkList
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, err
	}

	if wl.Curated == nil {
		wl.Curated = make(map[string][]string)
	}

	return &wl, nil
}

// FindWorkList searches for the work-list file in the following order:
// 1. If path is specified, use it directly
// 2. Look for .viciharvest in the current directory
// 3. Look for .viciharvest in the user's home directory
//
// Returns the path to the work-list file if found, or empty string.
func FindWorkList(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdList := filepath.Join(cwd, DefaultWorkListFile)
		if _, err := os.Stat(cwdList); err == nil {
			return cwdList
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeList := filepath.Join(home, DefaultWorkListFile)
		if _, err := os.Stat(homeList); err == nil {
			return homeList
		}
	}

	return ""
}

// Requests converts the work-list entries to WorkRequests, parsing each
// entry's priority. Entries without a title are rejected rather than
// silently skipped so that typos in the file surface immediately.
func (wl *WorkList) Requests() ([]model.WorkRequest, error) {
	requests := make([]model.WorkRequest, 0, len(wl.Works))
	for i, entry := range wl.Works {
		if entry.Title == "" {
			return nil, fmt.Errorf("work list entry %d has no title", i)
		}
		priority, err := model.ParsePriority(entry.Priority)
		if err != nil {
			return nil, fmt.Errorf("work list entry %q: %w", entry.Title, err)
		}
		requests = append(requests, model.WorkRequest{
			Title:     entry.Title,
			Priority:  priority,
			IndexHint: entry.IndexHint,
		})
	}
	return requests, nil
}
