// Package cli implements the wordorder command-line interface.
//
// # Commands
//
//   - permute: write permuted treebanks, or their metrics with --analyze
//   - analyze: write dependency length and related metrics per sentence
//   - hillclimb: optimize ordering grammars against a training treebank
//   - grammars: list stored runs and export their accepted grammars as NDJSON
//   - render: draw the dependency tree of a sentence
//   - cache: manage the analysis cache
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every sentence the loader rejects.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/buildinfo"
	"github.com/matzehuels/wordorder/pkg/cache"
	"github.com/matzehuels/wordorder/pkg/corpus"
	"github.com/matzehuels/wordorder/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "wordorder"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "wordorder permutes treebanks and optimizes word order grammars",
		Long: `wordorder reorders the words of dependency treebanks under different
linearization models, measures dependency length and related metrics, and
searches for ordering grammars that minimize them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.permuteCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.hillclimbCommand())
	root.AddCommand(c.grammarsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// program version.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/wordorder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Loader Flags
// =============================================================================

// loaderFlags are the cleaning and filtering flags shared by every command
// that reads treebanks.
type loaderFlags struct {
	minLen     int
	maxLen     int
	removeFile string
	mask       []string
	maskWords  bool
}

func (f *loaderFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minLen, "min-len", corpus.DefaultMinLen, "skip sentences with fewer words")
	cmd.Flags().IntVar(&f.maxLen, "max-len", corpus.DefaultMaxLen, "skip sentences with more words")
	cmd.Flags().StringVar(&f.removeFile, "remove", "", "NDJSON file of field filters; matching words and their dependents are removed")
	cmd.Flags().StringSliceVar(&f.mask, "mask", nil, "fields to blank out: form, lemma, upos, xpos, feats, deps, misc")
	cmd.Flags().BoolVar(&f.maskWords, "mask-words", false, "replace form and lemma with the original word id")
}

// loader builds the corpus loader the flags describe.
func (f *loaderFlags) loader(logger *log.Logger) (*corpus.Loader, error) {
	var filters []corpus.Filter
	if f.removeFile != "" {
		var err error
		if filters, err = corpus.ReadFiltersFile(f.removeFile); err != nil {
			return nil, err
		}
	}
	cleaner, err := corpus.NewCleaner(corpus.CleanerOptions{
		Remove:    filters,
		Mask:      f.mask,
		MaskWords: f.maskWords,
	})
	if err != nil {
		return nil, err
	}
	return &corpus.Loader{Cleaner: cleaner, MinLen: f.minLen, MaxLen: f.maxLen, Logger: logger}, nil
}

// key describes the flags in analysis cache keys. Filters are identified by
// the content of their file.
func (f *loaderFlags) key() (string, error) {
	filters := ""
	if f.removeFile != "" {
		data, err := os.ReadFile(f.removeFile)
		if err != nil {
			return "", err
		}
		filters = cache.Hash(data)
	}
	return fmt.Sprintf("min=%d max=%d remove=%s mask=%v words=%v", f.minLen, f.maxLen, filters, f.mask, f.maskWords), nil
}
