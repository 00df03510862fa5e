package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/cache"
	"github.com/deepxi/sebatch/internal/catalog"
	"github.com/deepxi/sebatch/utils"
)

var (
	listName     string
	forceRebuild bool
	filterQuery  string

	catalogCmd = &cobra.Command{
		Use:   "catalog DIR",
		Short: "Build or load the cached catalog of a dataset directory",
		Long: paragraph(fmt.Sprintf("\n%s every audio file in DIR with its length in samples. "+
			"The catalog is cached under --name and reused until the directory changes.", keyword("List"))),
		Example: paragraph("sebatch catalog ./speech --name train\n" +
			"sebatch catalog ./speech --name train --force --store sqlite\n" +
			"sebatch catalog ./speech --filter babble"),
		Args: cobra.ExactArgs(1),
		RunE: runCatalog,
	}
)

func init() {
	catalogCmd.Flags().StringVarP(&listName, "name", "n", "", "catalog name (default: directory base name)")
	catalogCmd.Flags().BoolVarP(&forceRebuild, "force", "f", false, "rescan even when a cached catalog matches")
	catalogCmd.Flags().StringVar(&filterQuery, "filter", "", "only print entries whose file name fuzzy-matches")
	catalogCmd.Flags().Int("compression-level", 3, "zstd level for the file store (0 for plain JSON)")

	_ = viper.BindPFlag("compression_level", catalogCmd.Flags().Lookup("compression-level"))
}

func runCatalog(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(utils.ExpandPath(args[0]))
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}
	name := listName
	if name == "" {
		name = filepath.Base(dir)
	}

	store, err := cache.Open(cfg.Store, cfg.CacheDir, cfg.CompressionLevel)
	if err != nil {
		return fmt.Errorf("unable to open catalog store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	b := catalog.NewBuilder(store, audio.DefaultRegistry(),
		catalog.WithExtensions(cfg.Extensions...),
		catalog.WithRecursive(cfg.Recursive),
		catalog.WithLogger(log.Default()),
	)
	entries, err := b.Build(dir, name, forceRebuild)
	if err != nil {
		return err
	}

	summary := catalogSummary{
		Name:       name,
		Entries:    entries,
		Query:      filterQuery,
		SampleRate: cfg.SampleRate,
		Artifact:   artifactPath(store, name),
		Cached:     b.Stats().Hits > 0,
	}
	return summary.print(cmd.OutOrStdout(), cmd.ErrOrStderr(), isTerminal())
}

// artifactPath returns where store keeps the catalog called name, or "" for
// stores without a file.
func artifactPath(store cache.Store, name string) string {
	switch s := store.(type) {
	case *cache.FileStore:
		return s.Path(name)
	case *cache.SQLiteStore:
		return filepath.Join(cfg.CacheDir, cache.SQLiteFile)
	default:
		return ""
	}
}

type catalogSummary struct {
	Name       string
	Entries    []catalog.Entry
	Query      string
	SampleRate int
	Artifact   string
	Cached     bool
}

// print writes one "path<TAB>samples" line per entry to out. The summary goes
// to out on a terminal and to errOut otherwise, so piped output stays clean.
func (s catalogSummary) print(out, errOut io.Writer, styled bool) error {
	shown := catalog.Filter(s.Entries, s.Query)
	for _, e := range shown {
		if _, err := fmt.Fprintf(out, "%s\t%d\n", e.FilePath, e.SeqLen); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}

	total := catalog.TotalSamples(s.Entries)
	line := fmt.Sprintf("%s files, %s samples, %s at %s Hz",
		humanize.Comma(int64(len(s.Entries))),
		humanize.Comma(total),
		catalog.Duration(s.Entries, s.SampleRate).Round(time.Millisecond),
		humanize.Comma(int64(s.SampleRate)),
	)
	if s.Query != "" {
		line += fmt.Sprintf(" (%d shown)", len(shown))
	}

	source := "built"
	if s.Cached {
		source = "cached"
	}
	artifact := ""
	if s.Artifact != "" {
		artifact = utils.ShortPath(s.Artifact)
		if st, err := os.Stat(s.Artifact); err == nil {
			artifact += ", " + humanize.Bytes(uint64(st.Size())) //nolint:gosec
		}
	}

	w := errOut
	name := s.Name
	if styled {
		w = out
		name = keyword(name)
		source = faint(source)
		if artifact != "" {
			artifact = faint(artifact)
		}
	}

	if _, err := fmt.Fprintf(w, "%s (%s): %s\n", name, source, line); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	if artifact != "" {
		if _, err := fmt.Fprintln(w, artifact); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
