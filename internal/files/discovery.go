package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"flowpulse/internal/dataprocessing"
)

// ErrNoReadings is returned when a directory holds no readings file
var ErrNoReadings = errors.New("no readings files found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds readings files on disk
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger.With(slog.String("component", "discovery"))}
}

// FindReadings lists the .xlsx, .xls and .csv files in dir, oldest first.
// Subdirectories are not searched.
func (d *Discovery) FindReadings(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !dataprocessing.SupportedFormat(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Equal times fall back to the name so the order is stable
	sort.Slice(found, func(i, j int) bool {
		if found[i].ModTime.Equal(found[j].ModTime) {
			return found[i].Name < found[j].Name
		}
		return found[i].ModTime.Before(found[j].ModTime)
	})

	d.logger.Debug("readings discovered",
		slog.String("directory", dir),
		slog.Int("count", len(found)))
	return found, nil
}

// Latest returns the most recently modified readings file in dir
func (d *Discovery) Latest(dir string) (FileInfo, error) {
	found, err := d.FindReadings(dir)
	if err != nil {
		return FileInfo{}, err
	}
	latest, ok := GetLatestFile(found)
	if !ok {
		return FileInfo{}, fmt.Errorf("%s: %w", dir, ErrNoReadings)
	}
	return latest, nil
}

// ResolveInput returns path itself unless it names a directory, in which
// case the latest readings file inside it is returned.
func (d *Discovery) ResolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}
	latest, err := d.Latest(path)
	if err != nil {
		return "", err
	}
	d.logger.Info("using latest readings file",
		slog.String("path", latest.Path),
		slog.Time("modified", latest.ModTime))
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list. Ties
// go to the later entry.
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if !file.ModTime.Before(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// FilterFilesByDateRange keeps files modified within [start, end]
func FilterFilesByDateRange(files []FileInfo, start, end time.Time) []FileInfo {
	var filtered []FileInfo
	for _, file := range files {
		if !file.ModTime.Before(start) && !file.ModTime.After(end) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}
