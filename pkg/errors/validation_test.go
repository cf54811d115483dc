package errors

import (
	"testing"
)

func TestValidateGlob(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "*.conllu", false},
		{"nested", "**/*.conllu", false},
		{"directory", "en_ewt/train/*.conllu", false},
		{"character class", "[a-z]*.conllu", false},

		{"empty", "", true},
		{"absolute", "/data/*.conllu", true},
		{"parent", "../*.conllu", true},
		{"control char", "foo\x01.conllu", true},
		{"malformed class", "[a-.conllu", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlob(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGlob(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateGlob(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateIDPrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"simple", "perm-", false},
		{"numbered", "0_", false},

		{"newline", "a\nb", true},
		{"equals", "a=b", true},
		{"too long", string(make([]byte, 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIDPrefix(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIDPrefix(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
