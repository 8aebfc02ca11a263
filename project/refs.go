package project

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
)

// refPattern matches a PTH record followed by the recording path it points
// to. Song files are binary, so the match never crosses a newline.
var refPattern = regexp.MustCompile(`(PTH\d+).*?(My Recordings/.*?\.wav)`)

// Group holds the recordings referenced under one PTH key, in file order.
type Group struct {
	Key   string
	Paths []string
}

// ScanReferences extracts the recording references from a song file.
// Groups appear in the order their key is first seen.
func ScanReferences(r io.Reader) ([]Group, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read song: %w", err)
	}

	var groups []Group

	index := map[string]int{}

	for _, m := range refPattern.FindAllSubmatch(data, -1) {
		key, path := string(m[1]), string(m[2])

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}

		groups[i].Paths = append(groups[i].Paths, path)
	}

	return groups, nil
}

// RecordingPath resolves a reference against the songs directory: the
// reference is relative to the directory holding it.
func RecordingPath(songsDir, ref string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(songsDir)), filepath.FromSlash(ref))
}
