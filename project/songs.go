// Package project finds mobile DAW songs and the recordings they reference,
// which are the WAVE files wavfx processes.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SongExt is the extension of song files.
const SongExt = ".flm"

// DefaultSongsDir is where the Android app keeps its songs. Recordings live
// in "My Recordings" next to it.
const DefaultSongsDir = "/sdcard/Android/data/com.imageline.FLM/files/My Songs"

// ErrUnknownSort is returned by ParseSortMode.
var ErrUnknownSort = errors.New("unknown sort mode")

// SortMode orders a song list.
type SortMode int

const (
	SortNewest SortMode = iota
	SortNameAsc
	SortNameDesc
)

var sortNames = [...]string{
	SortNewest:   "newest",
	SortNameAsc:  "name",
	SortNameDesc: "name-desc",
}

func (m SortMode) String() string {
	if m < 0 || int(m) >= len(sortNames) {
		return fmt.Sprintf("SortMode(%d)", int(m))
	}

	return sortNames[m]
}

// ParseSortMode parses "newest", "name" or "name-desc".
func ParseSortMode(s string) (SortMode, error) {
	for i, name := range sortNames {
		if strings.EqualFold(s, name) {
			return SortMode(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// Song is a song file found by ListSongs.
type Song struct {
	Name     string // file name without SongExt
	Path     string
	Modified time.Time
}

// ListSongs returns the songs directly inside dir, ordered by mode. Names
// compare case-insensitively; equal keys keep directory order.
func ListSongs(dir string, mode SortMode) ([]Song, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs in %s: %w", dir, err)
	}

	var songs []Song

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), SongExt) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}

		songs = append(songs, Song{
			Name:     name[:len(name)-len(SongExt)],
			Path:     filepath.Join(dir, name),
			Modified: info.ModTime(),
		})
	}

	SortSongs(songs, mode)

	return songs, nil
}

// SortSongs orders songs in place.
func SortSongs(songs []Song, mode SortMode) {
	byName := func(a, b Song) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}

	switch mode {
	case SortNameAsc:
		slices.SortStableFunc(songs, byName)
	case SortNameDesc:
		slices.SortStableFunc(songs, func(a, b Song) int { return byName(b, a) })
	default:
		slices.SortStableFunc(songs, func(a, b Song) int { return b.Modified.Compare(a.Modified) })
	}
}

// SongPath returns the file for a song given by name or path. Anything
// with a path separator or the song extension is taken as a path.
func SongPath(dir, song string) string {
	if strings.ContainsRune(song, filepath.Separator) || strings.EqualFold(filepath.Ext(song), SongExt) {
		return song
	}

	return filepath.Join(dir, song+SongExt)
}
