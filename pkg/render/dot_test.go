package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

func sentence(t *testing.T) conllu.Sentence {
	t.Helper()
	text := "# sent_id = s1\n" +
		"1\tthe\t_\tDET\t_\t_\t2\tdet\t_\t_\n" +
		"2\tdog\t_\tNOUN\t_\t_\t3\tnsubj\t_\t_\n" +
		"3\tbarks\t_\tVERB\t_\t_\t0\troot\t_\t_\n\n"
	s, err := conllu.ReadAll(strings.NewReader(text))
	if err != nil || len(s) != 1 {
		t.Fatalf("parse: %v", err)
	}
	return s[0]
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sentence(t), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=TB",
		`"w1" [label="the"]`,
		`"root" -> "w3" [label="root"]`,
		`"w3" -> "w2" [label="nsubj"]`,
		`"w2" -> "w1" [label="det"]`,
		`label="s1"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "invis") {
		t.Error("tree layout should not chain words")
	}
}

func TestToDOT_Linear(t *testing.T) {
	dot := ToDOT(sentence(t), Options{Linear: true})

	if !strings.Contains(dot, `"root" -> "w1" -> "w2" -> "w3" [style=invis`) {
		t.Errorf("ToDOT() linear output missing word chain:\n%s", dot)
	}
	if !strings.Contains(dot, "constraint=false") {
		t.Error("ToDOT() linear arcs should not constrain ranks")
	}
}

func TestFmtLabel(t *testing.T) {
	tests := []struct {
		token    conllu.Token
		detailed bool
		want     string
	}{
		{conllu.Token{ID: 2, Form: "dog", UPOS: "NOUN"}, false, "dog"},
		{conllu.Token{ID: 2, Form: "dog", UPOS: "NOUN"}, true, "dog\n2: NOUN"},
		{conllu.Token{ID: 4}, false, "_"},
		{conllu.Token{ID: 4}, true, "_\n4: _"},
	}

	for _, tt := range tests {
		if got := fmtLabel(tt.token, tt.detailed); got != tt.want {
			t.Errorf("fmtLabel(%+v, %v) = %q, want %q", tt.token, tt.detailed, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sentence(t), Options{Detailed: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}

func TestRenderFormats(t *testing.T) {
	s := sentence(t)
	dot, err := Render(context.Background(), s, "dot", Options{})
	if err != nil || !strings.HasPrefix(string(dot), "digraph G") {
		t.Errorf("Render(dot) = %q, %v", dot, err)
	}
	if _, err := Render(context.Background(), s, "gif", Options{}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Render(gif) error = %v", err)
	}
}
