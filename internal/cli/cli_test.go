package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/config"
	"github.com/matzehuels/wordorder/pkg/corpus"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/hillclimb"
	"github.com/matzehuels/wordorder/pkg/store"
)

const twoSentences = `# sent_id = a
1	the	_	DET	_	_	2	det	_	_
2	dog	_	NOUN	_	_	3	nsubj	_	_
3	barks	_	VERB	_	_	0	root	_	_

# sent_id = b
1	birds	_	NOUN	_	_	2	nsubj	_	_
2	sing	_	VERB	_	_	0	root	_	_

`

func parseHillclimbFlags(t *testing.T, args ...string) (*cobra.Command, *hillclimbFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "hillclimb"}
	f := &hillclimbFlags{}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	return cmd, f
}

func TestHillclimbOverrideWithoutFile(t *testing.T) {
	cmd, f := parseHillclimbFlags(t, "--train", "treebanks/train", "--epochs", "5")
	run := &config.Run{}
	if err := f.override(cmd, run, false); err != nil {
		t.Fatalf("override: %v", err)
	}

	if !filepath.IsAbs(run.Train.Dir) || !strings.HasSuffix(run.Train.Dir, filepath.Join("treebanks", "train")) {
		t.Errorf("Train.Dir = %q, want absolute path", run.Train.Dir)
	}
	if run.Train.Glob != config.DefaultGlob {
		t.Errorf("Train.Glob = %q, want %q", run.Train.Glob, config.DefaultGlob)
	}
	if run.Epochs != 5 {
		t.Errorf("Epochs = %d, want 5", run.Epochs)
	}
	if run.Lambda != hillclimb.DefaultLambda || run.Candidates != hillclimb.DefaultCandidates || run.Seed != hillclimb.DefaultSeed {
		t.Errorf("defaults not applied: %+v", run)
	}
	if want := []string{analyze.DependencyLength.String()}; !reflect.DeepEqual(run.Objectives, want) {
		t.Errorf("Objectives = %v, want %v", run.Objectives, want)
	}
	if run.Output.File != "" || run.Output.DB != "" {
		t.Errorf("empty paths should stay empty: %+v", run.Output)
	}
}

func TestHillclimbOverrideFile(t *testing.T) {
	run, err := config.Parse(`
epochs = 7
lambda = 0.5
objectives = ["DependencyLength", "IntervenerComplexity"]

[train]
dir = "/data/train"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cmd, f := parseHillclimbFlags(t, "--epochs", "3", "--count-root")
	if err := f.override(cmd, run, true); err != nil {
		t.Fatalf("override: %v", err)
	}

	if run.Epochs != 3 {
		t.Errorf("Epochs = %d, want flag value 3", run.Epochs)
	}
	if !run.CountRoot {
		t.Error("CountRoot should be set by the flag")
	}
	if run.Lambda != 0.5 {
		t.Errorf("Lambda = %v, want file value 0.5", run.Lambda)
	}
	if !reflect.DeepEqual(run.Objectives, []string{"DependencyLength", "IntervenerComplexity"}) {
		t.Errorf("Objectives = %v, want file value", run.Objectives)
	}
	if run.Train.Dir != "/data/train" || run.Train.Glob != config.DefaultGlob {
		t.Errorf("Train = %+v", run.Train)
	}
	if run.BurnIn != 0 {
		t.Errorf("BurnIn = %d, want 0 when the file omits it", run.BurnIn)
	}
}

func TestLoadCorpusStream(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tb.conllu"), []byte(twoSentences), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, LogInfo)
	section := config.Corpus{Dir: dir, Glob: config.DefaultGlob}

	cmd, f := parseHillclimbFlags(t, "--stream")
	run := &config.Run{}
	if err := f.override(cmd, run, false); err != nil {
		t.Fatalf("override: %v", err)
	}
	if !run.Stream {
		t.Fatal("Stream should be set by the flag")
	}
	src, err := c.loadCorpus(run, section, &corpus.Loader{}, "training")
	if err != nil {
		t.Fatalf("loadCorpus: %v", err)
	}
	if _, ok := src.(*corpus.FileSource); !ok {
		t.Errorf("streamed corpus is %T, want *corpus.FileSource", src)
	}
	if n, _, err := corpus.Count(src); err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2 sentences", n, err)
	}

	run.Stream = false
	src, err = c.loadCorpus(run, section, &corpus.Loader{}, "training")
	if err != nil {
		t.Fatalf("loadCorpus: %v", err)
	}
	if mem, ok := src.(corpus.MemorySource); !ok || len(mem) != 2 {
		t.Errorf("loaded corpus = %T with %d sentences, want a 2-sentence MemorySource", src, len(mem))
	}
}

func TestLoaderFlagsKey(t *testing.T) {
	dir := t.TempDir()
	removeFile := filepath.Join(dir, "remove.ndjson")
	if err := os.WriteFile(removeFile, []byte(`{"upos": "PUNCT"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := loaderFlags{minLen: 1, maxLen: 999}
	variants := map[string]loaderFlags{
		"min-len":    {minLen: 2, maxLen: 999},
		"max-len":    {minLen: 1, maxLen: 40},
		"remove":     {minLen: 1, maxLen: 999, removeFile: removeFile},
		"mask":       {minLen: 1, maxLen: 999, mask: []string{"form"}},
		"mask-words": {minLen: 1, maxLen: 999, maskWords: true},
	}

	baseKey, err := base.key()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	again, _ := base.key()
	if again != baseKey {
		t.Errorf("key not deterministic: %q vs %q", baseKey, again)
	}
	for name, f := range variants {
		k, err := f.key()
		if err != nil {
			t.Fatalf("%s: key: %v", name, err)
		}
		if k == baseKey {
			t.Errorf("%s: key should differ from the default key", name)
		}
	}

	missing := loaderFlags{removeFile: filepath.Join(dir, "missing.ndjson")}
	if _, err := missing.key(); err == nil {
		t.Error("key with a missing filter file should fail")
	}
}

func TestSelectSentence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tb.conllu")
	if err := os.WriteFile(path, []byte(twoSentences), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		id      string
		index   int
		want    string
		wantErr bool
	}{
		{name: "first by index", index: 1, want: "a"},
		{name: "second by index", index: 2, want: "b"},
		{name: "by id", id: "b", index: 1, want: "b"},
		{name: "unknown id", id: "z", wantErr: true},
		{name: "index zero", index: 0, wantErr: true},
		{name: "index past end", index: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := selectSentence(path, tt.id, tt.index)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.SentID() != tt.want {
				t.Errorf("SentID() = %q, want %q", s.SentID(), tt.want)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "sentence"},
		{"s1", "s1"},
		{"train/doc 1", "train_doc_1"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastAccepted(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	run, err := st.CreateRun(ctx, map[string]any{"epochs": 2})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	step := func(candidate, epoch int, accepted bool, w float64) hillclimb.Record {
		return hillclimb.Record{
			Stage:     hillclimb.StageTrain,
			Candidate: candidate,
			Epoch:     epoch,
			Grammar:   grammar.Grammar{"nsubj": w},
			Accepted:  accepted,
		}
	}
	for _, rec := range []hillclimb.Record{
		step(0, 0, true, 0.1),
		step(1, 0, false, 0.9),
		step(0, 1, true, 0.2),
		step(1, 1, false, 0.8),
		step(2, 1, true, 0.3),
	} {
		if err := st.Append(ctx, run.ID, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := lastAccepted(ctx, st, run.ID, -1)
	if err != nil {
		t.Fatalf("lastAccepted: %v", err)
	}
	want := []grammar.Grammar{{"nsubj": 0.2}, {"nsubj": 0.3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lastAccepted = %v, want %v", got, want)
	}

	got, err = lastAccepted(ctx, st, run.ID, 1)
	if err != nil {
		t.Fatalf("lastAccepted: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("candidate 1 accepted nothing, got %v", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	for _, name := range []string{"permute", "analyze", "hillclimb", "grammars", "render", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
