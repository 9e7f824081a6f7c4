package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseConflictMode(t *testing.T) {
	tests := []struct {
		input string
		want  ConflictMode
		ok    bool
	}{
		{"skip", ConflictSkip, true},
		{"", ConflictSkip, true},
		{"FAIL", ConflictFail, true},
		{" overwrite ", ConflictOverwrite, true},
		{"suffix", ConflictSuffix, true},
		{"bogus", ConflictSkip, false},
	}

	for _, tt := range tests {
		got, err := ParseConflictMode(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseConflictMode(%q) err = %v, ok = %v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseConflictMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestResolveNoConflict(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "old.mkv")
	target := filepath.Join(dir, "new.mkv")
	touch(t, original)

	got, err := Resolve(original, target, ConflictFail)
	if err != nil {
		t.Fatal(err)
	}
	if got != target {
		t.Errorf("Resolve = %q, want %q", got, target)
	}
}

func TestResolveCaseOnlyRename(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "silo.mkv")
	touch(t, original)

	// On case-insensitive filesystems the target "exists" as the source
	target := filepath.Join(dir, "Silo.mkv")
	got, err := Resolve(original, target, ConflictFail)
	if err != nil {
		t.Fatalf("case-only rename treated as conflict: %v", err)
	}
	if got != target {
		t.Errorf("Resolve = %q, want %q", got, target)
	}
}

func TestResolveModes(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "old.mkv")
	target := filepath.Join(dir, "taken.mkv")
	touch(t, original)
	touch(t, target)

	t.Run("skip", func(t *testing.T) {
		_, err := Resolve(original, target, ConflictSkip)
		if !errors.Is(err, ErrSkipConflict) {
			t.Errorf("err = %v, want ErrSkipConflict", err)
		}
	})

	t.Run("fail", func(t *testing.T) {
		_, err := Resolve(original, target, ConflictFail)
		if !errors.Is(err, ErrTargetExists) {
			t.Errorf("err = %v, want ErrTargetExists", err)
		}
		if KindOf(err) != KindTargetExists {
			t.Errorf("kind = %v, want KindTargetExists", KindOf(err))
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		got, err := Resolve(original, target, ConflictOverwrite)
		if err != nil {
			t.Fatal(err)
		}
		if got != target {
			t.Errorf("Resolve = %q, want %q", got, target)
		}
	})

	t.Run("suffix", func(t *testing.T) {
		got, err := Resolve(original, target, ConflictSuffix)
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(dir, "taken_1.mkv")
		if got != want {
			t.Errorf("Resolve = %q, want %q", got, want)
		}
	})
}

func TestResolveSuffixSkipsOccupied(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "old.mkv")
	touch(t, original)
	touch(t, filepath.Join(dir, "X.mkv"))
	touch(t, filepath.Join(dir, "X_1.mkv"))

	got, err := Resolve(original, filepath.Join(dir, "X.mkv"), ConflictSuffix)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "X_2.mkv")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveSuffixExhaustion(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "old.mkv")
	target := filepath.Join(dir, "full.mkv")
	touch(t, original)
	touch(t, target)
	for i := 1; i <= maxSuffixAttempts; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("full_%d.mkv", i)))
	}

	_, err := Resolve(original, target, ConflictSuffix)
	if !errors.Is(err, ErrSuffixExhausted) {
		t.Errorf("err = %v, want ErrSuffixExhausted", err)
	}
}
