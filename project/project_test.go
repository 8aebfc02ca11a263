package project

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSong(t *testing.T, dir, name string, modified time.Time) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("FLhd"), 0o644))
	require.NoError(t, os.Chtimes(path, modified, modified))
}

func names(songs []Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Name
	}

	return out
}

func TestListSongs(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 11, 12, 15, 0, 0, 0, time.UTC)

	writeSong(t, dir, "beta.flm", base.Add(2*time.Hour))
	writeSong(t, dir, "Alpha.flm", base)
	writeSong(t, dir, "gamma.FLM", base.Add(time.Hour))
	writeSong(t, dir, "notes.txt", base.Add(3*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.flm"), 0o755))

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortNewest, []string{"beta", "gamma", "Alpha"}},
		{SortNameAsc, []string{"Alpha", "beta", "gamma"}},
		{SortNameDesc, []string{"gamma", "beta", "Alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			songs, err := ListSongs(dir, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(songs))
		})
	}

	songs, err := ListSongs(dir, SortNameAsc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Alpha.flm"), songs[0].Path)
	assert.True(t, songs[0].Modified.Equal(base))
}

func TestListSongsMissingDir(t *testing.T) {
	_, err := ListSongs(filepath.Join(t.TempDir(), "nope"), SortNewest)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSortSongsKeepsTies(t *testing.T) {
	at := time.Unix(1731422799, 0)
	songs := []Song{{Name: "b", Modified: at}, {Name: "a", Modified: at}, {Name: "B", Modified: at}}

	SortSongs(songs, SortNewest)
	assert.Equal(t, []string{"b", "a", "B"}, names(songs))

	SortSongs(songs, SortNameAsc)
	assert.Equal(t, []string{"a", "b", "B"}, names(songs))
}

func TestParseSortMode(t *testing.T) {
	for _, m := range []SortMode{SortNewest, SortNameAsc, SortNameDesc} {
		got, err := ParseSortMode(strings.ToUpper(m.String()))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseSortMode("size")
	require.ErrorIs(t, err, ErrUnknownSort)
	assert.Equal(t, "SortMode(7)", SortMode(7).String())
}

func TestSongPath(t *testing.T) {
	dir := filepath.Join("data", "My Songs")

	assert.Equal(t, filepath.Join(dir, "Intro.flm"), SongPath(dir, "Intro"))
	assert.Equal(t, "Intro.flm", SongPath(dir, "Intro.flm"))
	assert.Equal(t, filepath.Join("x", "Intro"), SongPath(dir, filepath.Join("x", "Intro")))
}

func TestScanReferences(t *testing.T) {
	song := []byte("FLhd\x00\x06\x00PTH12\x00\xc4\x2aMy Recordings/vocal take.wav\x00" +
		"junk PTH3 \x01My Recordings/drums.wav\x00" +
		"PTH12\x00My Recordings/vocal take 2.wav\x00" +
		"PTH4\nMy Recordings/split.wav\x00" +
		"My Recordings/orphan.wav\x00" +
		"PTH5 My Recordings/not-audio.mp3\x00")

	groups, err := ScanReferences(bytes.NewReader(song))
	require.NoError(t, err)

	assert.Equal(t, []Group{
		{Key: "PTH12", Paths: []string{"My Recordings/vocal take.wav", "My Recordings/vocal take 2.wav"}},
		{Key: "PTH3", Paths: []string{"My Recordings/drums.wav"}},
	}, groups)
}

func TestScanReferencesTakesNearestPath(t *testing.T) {
	groups, err := ScanReferences(strings.NewReader("PTH1 My Recordings/a.wav My Recordings/b.wav"))
	require.NoError(t, err)
	assert.Equal(t, []Group{{Key: "PTH1", Paths: []string{"My Recordings/a.wav"}}}, groups)
}

func TestScanReferencesEmptyAndFailing(t *testing.T) {
	groups, err := ScanReferences(strings.NewReader("FLhd no references"))
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = ScanReferences(iotest.ErrReader(os.ErrClosed))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestRecordingPath(t *testing.T) {
	songs := filepath.Join("/sdcard", "files", "My Songs") + string(filepath.Separator)

	assert.Equal(t,
		filepath.Join("/sdcard", "files", "My Recordings", "take.wav"),
		RecordingPath(songs, "My Recordings/take.wav"))
}
