package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/project"
)

const songTimeLayout = "2006-01-02 15:04"

func newSongsCmd(opts *rootOptions) *cobra.Command {
	var dir, sortBy string

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List the songs in the songs directory",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mode, err := project.ParseSortMode(sortBy)
			if err != nil {
				return err
			}

			if dir == "" {
				dir = opts.app.cfg.SongsDir
			}

			songs, err := project.ListSongs(dir, mode)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(opts.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MODIFIED\tSONG")

			for _, s := range songs {
				fmt.Fprintf(tw, "%s\t%s\n", s.Modified.In(time.Local).Format(songTimeLayout), s.Name)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "songs directory (default from config)")
	cmd.Flags().StringVar(&sortBy, "sort", project.SortNewest.String(), "order: newest, name or name-desc")

	return cmd
}

func newRefsCmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "refs <song>",
		Short: "Print the recordings a song references, grouped by PTH key",
		Long: "Print the recordings a song references, grouped by PTH key. The song is a\n" +
			"name in the songs directory or a path to a song file.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.app.cfg.SongsDir
			}

			path := project.SongPath(dir, args[0])

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open song: %w", err)
			}
			defer f.Close()

			groups, err := project.ScanReferences(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			opts.app.logger.Debug("scanned song", "song", path, "groups", len(groups))

			for _, g := range groups {
				fmt.Fprintln(opts.stdout, g.Key)

				for _, ref := range g.Paths {
					fmt.Fprintf(opts.stdout, "  %s\n", project.RecordingPath(dir, ref))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "songs directory (default from config)")

	return cmd
}
