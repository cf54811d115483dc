package conllu

import (
	"fmt"
	"strconv"
	"strings"
)

// NoHead is the head value of a token whose HEAD field is "_".
const NoHead = -1

// Field names accepted by [Token.Field] and [Token.Mask].
const (
	FieldForm   = "form"
	FieldLemma  = "lemma"
	FieldUPOS   = "upos"
	FieldXPOS   = "xpos"
	FieldFeats  = "feats"
	FieldHead   = "head"
	FieldDeprel = "deprel"
	FieldDeps   = "deps"
	FieldMisc   = "misc"
)

// MaskableFields lists the fields that may be blanked out with [Token.Mask].
// Structural fields (id, head, deprel) are never maskable.
var MaskableFields = []string{FieldForm, FieldLemma, FieldUPOS, FieldXPOS, FieldFeats, FieldDeps, FieldMisc}

// TokenKind distinguishes syntactic words from the auxiliary rows CoNLL-U
// allows between them.
type TokenKind int

const (
	// KindWord is a syntactic word with an integer ID.
	KindWord TokenKind = iota
	// KindMultiword is a multiword token span such as "2-3".
	KindMultiword
	// KindEmpty is an empty node of the enhanced representation such as "8.1".
	KindEmpty
)

// Token is one row of a CoNLL-U sentence. Tokens are plain values: copying a
// Token copies all of its fields.
type Token struct {
	ID     int
	Kind   TokenKind
	RawID  string // original ID text for non-word tokens
	Form   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  string
	Head   int
	Deprel string
	Deps   string
	Misc   string
}

// IsWord reports whether t is a syntactic word.
func (t Token) IsWord() bool {
	return t.Kind == KindWord
}

// IsRoot reports whether t is attached to the artificial root.
func (t Token) IsRoot() bool {
	return t.Kind == KindWord && t.Head == 0
}

// Field returns the value of a named field as it would appear in a file.
func (t Token) Field(name string) (string, bool) {
	switch name {
	case "id":
		return t.idString(), true
	case FieldForm:
		return t.Form, true
	case FieldLemma:
		return t.Lemma, true
	case FieldUPOS:
		return t.UPOS, true
	case FieldXPOS:
		return t.XPOS, true
	case FieldFeats:
		return t.Feats, true
	case FieldHead:
		return t.headString(), true
	case FieldDeprel:
		return t.Deprel, true
	case FieldDeps:
		return t.Deps, true
	case FieldMisc:
		return t.Misc, true
	}
	return "", false
}

// Mask blanks the named field. It reports false for unknown or structural
// field names.
func (t *Token) Mask(name string) bool {
	switch name {
	case FieldForm:
		t.Form = ""
	case FieldLemma:
		t.Lemma = ""
	case FieldUPOS:
		t.UPOS = ""
	case FieldXPOS:
		t.XPOS = ""
	case FieldFeats:
		t.Feats = ""
	case FieldDeps:
		t.Deps = ""
	case FieldMisc:
		t.Misc = ""
	default:
		return false
	}
	return true
}

// String formats t as a tab-separated CoNLL-U row.
func (t Token) String() string {
	fields := []string{
		t.idString(),
		t.Form,
		t.Lemma,
		t.UPOS,
		t.XPOS,
		t.Feats,
		t.headString(),
		t.Deprel,
		t.Deps,
		t.Misc,
	}
	for i, field := range fields {
		if len(field) == 0 {
			fields[i] = "_"
		}
	}
	return strings.Join(fields, "\t")
}

func (t Token) idString() string {
	if t.Kind != KindWord {
		return t.RawID
	}
	return strconv.Itoa(t.ID)
}

func (t Token) headString() string {
	if t.Head == NoHead {
		return ""
	}
	return strconv.Itoa(t.Head)
}

// ParseToken parses one tab-separated row.
func ParseToken(line string) (Token, error) {
	record := strings.Split(line, "\t")
	if len(record) != 10 {
		return Token{}, fmt.Errorf("expected 10 fields, got %d", len(record))
	}

	var t Token
	switch id := record[0]; {
	case strings.Contains(id, "-"):
		t.Kind, t.RawID = KindMultiword, id
	case strings.Contains(id, "."):
		t.Kind, t.RawID = KindEmpty, id
	default:
		n, err := strconv.Atoi(id)
		if err != nil || n < 1 {
			return Token{}, fmt.Errorf("invalid ID field %q", id)
		}
		t.ID = n
	}

	t.Form = parseString(record[1])
	t.Lemma = parseString(record[2])
	t.UPOS = parseString(record[3])
	t.XPOS = parseString(record[4])
	t.Feats = parseString(record[5])

	head, err := parseHead(record[6])
	if err != nil {
		return Token{}, fmt.Errorf("invalid HEAD field %q", record[6])
	}
	t.Head = head

	t.Deprel = parseString(record[7])
	t.Deps = parseString(record[8])
	t.Misc = parseString(record[9])
	return t, nil
}

func parseString(value string) string {
	if value == "_" {
		return ""
	}
	return value
}

func parseHead(value string) (int, error) {
	if value == "_" {
		return NoHead, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad head %q", value)
	}
	return n, nil
}
