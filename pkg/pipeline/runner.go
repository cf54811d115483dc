package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/cache"
	"github.com/matzehuels/wordorder/pkg/conllu"
	"github.com/matzehuels/wordorder/pkg/corpus"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/observability"
	"github.com/matzehuels/wordorder/pkg/permute"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; permuters are
// built per run, so one Runner can serve several runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// FileResult describes one processed input file.
type FileResult struct {
	Input    string
	Output   string
	Written  int // sentences or records written
	CacheHit bool
	Duration time.Duration
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Files  []FileResult
	Loader corpus.Stats
}

// job is everything built once per run and shared by its files.
type job struct {
	opts     Options
	loader   *corpus.Loader
	perms    []permute.Permuter
	analyzer *analyze.SentenceAnalyzer
}

// Run processes input into output. A file input is written to the output
// path; a directory input has every file matching opts.Glob written below
// the output directory with the same relative path.
func (r *Runner) Run(ctx context.Context, loader *corpus.Loader, input, output string, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if loader == nil {
		loader = &corpus.Loader{}
	}

	j := &job{opts: opts, loader: loader}
	var err error
	if opts.Task.Permutes() {
		if j.perms, err = opts.Permuters(); err != nil {
			return nil, err
		}
	}
	if opts.Task.Analyzes() {
		if j.analyzer, err = opts.Analyzer(); err != nil {
			return nil, err
		}
	}

	pairs, err := r.resolve(input, output, opts)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		r.Logger.Warn("no input files matched", "input", input, "glob", opts.Glob)
	}

	result := &Result{}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fr, err := r.processFile(ctx, j, p[0], p[1])
		if err != nil {
			return result, fmt.Errorf("%s: %w", p[0], err)
		}
		result.Files = append(result.Files, fr)
	}
	result.Loader = loader.Stats()
	return result, nil
}

// resolve pairs every input file with its output path.
func (r *Runner) resolve(input, output string, opts Options) ([][2]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "input %s", input)
		}
		return nil, err
	}
	if !info.IsDir() {
		if err := checkDistinct(input, output); err != nil {
			return nil, err
		}
		return [][2]string{{input, output}}, nil
	}

	files, err := corpus.Glob(input, opts.Glob)
	if err != nil {
		return nil, err
	}
	pairs := make([][2]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(input, f)
		if err != nil {
			return nil, err
		}
		out := filepath.Join(output, strings.TrimSuffix(rel, filepath.Ext(rel))+opts.Task.Extension())
		if err := checkDistinct(f, out); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{f, out})
	}
	return pairs, nil
}

func checkDistinct(in, out string) error {
	a, _ := filepath.Abs(in)
	b, _ := filepath.Abs(out)
	if a == b {
		return errs.New(errs.ErrCodeInvalidPath, "output %s would overwrite its input", out)
	}
	return nil
}

func (r *Runner) processFile(ctx context.Context, j *job, in, out string) (fr FileResult, err error) {
	hooks := observability.Pipeline()
	task := j.opts.Task.String()
	start := time.Now()
	hooks.OnFileStart(ctx, task, in)
	defer func() {
		fr.Duration = time.Since(start)
		hooks.OnFileComplete(ctx, task, in, fr.Written, fr.Duration, err)
	}()

	fr = FileResult{Input: in, Output: out}
	r.Logger.Debug("processing file", "input", in, "output", out)

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fr, err
	}

	var key string
	if _, disabled := r.Cache.(*cache.NullCache); j.opts.Task == TaskAnalyze && !disabled {
		data, err := os.ReadFile(in)
		if err != nil {
			return fr, err
		}
		key = r.Keyer.AnalysisKey(cache.Hash(data), j.opts.AnalysisKeyOpts())
		if !j.opts.Refresh {
			if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, key)
				if err := os.WriteFile(out, cached, 0o644); err != nil {
					return fr, err
				}
				fr.CacheHit = true
				fr.Written = bytes.Count(cached, []byte("\n"))
				r.Logger.Debug("analysis cache hit", "input", in)
				return fr, nil
			}
			observability.Cache().OnCacheMiss(ctx, key)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return fr, err
	}
	defer f.Close()

	var buf bytes.Buffer
	var w io.Writer = f
	if key != "" {
		w = io.MultiWriter(f, &buf)
	}
	bw := bufio.NewWriter(w)

	var src corpus.Source = corpus.NewFileSource(j.loader, in)
	if j.opts.Task.Permutes() {
		// every permuter walks the file; read and count it once
		if src, err = corpus.Materialize(src); err != nil {
			return fr, err
		}
	}
	switch j.opts.Task {
	case TaskPermute:
		fr.Written, err = r.permute(ctx, j, src, conllu.NewWriter(bw))
	case TaskAnalyze:
		fr.Written, err = r.analyze(ctx, j, src, json.NewEncoder(bw))
	case TaskPermuteAnalyze:
		fr.Written, err = r.permuteAnalyze(ctx, j, src, json.NewEncoder(bw))
	}
	if err != nil {
		return fr, err
	}
	if err := bw.Flush(); err != nil {
		return fr, err
	}
	if err := f.Close(); err != nil {
		return fr, err
	}

	if key != "" {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLAnalysis); err != nil {
			r.Logger.Warn("could not cache analysis", "input", in, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, buf.Len())
		}
	}
	return fr, nil
}

// permute writes the whole file once per permuter, in permuter order.
// src is read once per permuter.
func (r *Runner) permute(ctx context.Context, j *job, src corpus.Source, w *conllu.Writer) (int, error) {
	n := 0
	for _, p := range j.perms {
		for s, err := range src.Sentences() {
			if err != nil {
				return n, err
			}
			if err := ctx.Err(); err != nil {
				return n, err
			}
			out, err := p.Permute(s)
			if err != nil {
				r.Logger.Warn("skipping sentence", "sent_id", s.SentID(), "error", err)
				continue
			}
			if err := w.Write(out); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, w.Flush()
}

func (r *Runner) analyze(ctx context.Context, j *job, src corpus.Source, enc *json.Encoder) (int, error) {
	n := 0
	for s, err := range src.Sentences() {
		if err != nil {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ok, err := r.writeRecord(j, s, enc)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (r *Runner) permuteAnalyze(ctx context.Context, j *job, src corpus.Source, enc *json.Encoder) (int, error) {
	n := 0
	for _, p := range j.perms {
		for s, err := range src.Sentences() {
			if err != nil {
				return n, err
			}
			if err := ctx.Err(); err != nil {
				return n, err
			}
			out, err := p.Permute(s)
			if err != nil {
				r.Logger.Warn("skipping sentence", "sent_id", s.SentID(), "error", err)
				continue
			}
			ok, err := r.writeRecord(j, out, enc)
			if err != nil {
				return n, err
			}
			if ok {
				n++
			}
		}
	}
	return n, nil
}

// writeRecord analyzes s and encodes its record. Sentences the analyzer
// rejects are logged and skipped; encoding failures end the run.
func (r *Runner) writeRecord(j *job, s conllu.Sentence, enc *json.Encoder) (bool, error) {
	rec, err := j.analyzer.Analyze(s)
	if err != nil {
		r.Logger.Warn("skipping sentence", "sent_id", s.SentID(), "error", err)
		return false, nil
	}
	if err := enc.Encode(rec); err != nil {
		return false, err
	}
	return true, nil
}
