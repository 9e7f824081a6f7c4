package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmAnswers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "yes\n", true},
		{"uppercase", "Y\n", true},
		{"padded", "  yes  \n", true},
		{"no", "n\n", false},
		{"empty line defaults to no", "\n", false},
		{"garbage", "maybe\n", false},
		{"eof", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Console{Out: &bytes.Buffer{}, In: strings.NewReader(tt.input)}
			if got := c.Confirm("Apply changes"); got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfirmAssumeYesSkipsPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	c := &Console{Out: out, In: strings.NewReader(""), AssumeYes: true}
	if !c.Confirm("Apply changes") {
		t.Fatal("AssumeYes should confirm")
	}
	if out.Len() != 0 {
		t.Errorf("AssumeYes wrote a prompt: %q", out.String())
	}
}

func TestSummaryOutput(t *testing.T) {
	out := &bytes.Buffer{}
	c := &Console{Out: out}
	c.Summary(3, 1, 0, 2)

	got := out.String()
	if !strings.Contains(got, "3 renamed") || !strings.Contains(got, "2 failed") {
		t.Errorf("unexpected summary output: %q", got)
	}
}
