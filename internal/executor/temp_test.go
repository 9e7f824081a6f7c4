package executor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTempNameInTargetDirectory(t *testing.T) {
	temp := tempName("/media/tv/Silo - S02E02.mkv")

	if filepath.Dir(temp) != "/media/tv" {
		t.Errorf("temp dir = %q, want /media/tv", filepath.Dir(temp))
	}
	if !IsTempFile(temp) {
		t.Errorf("tempName output %q not recognized by IsTempFile", temp)
	}
	if filepath.Ext(temp) != ".mkv" {
		t.Errorf("temp ext = %q, want .mkv", filepath.Ext(temp))
	}
}

func TestTempGlobFindsStagedFile(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "Silo - S02E02.mkv")

	temp := tempName(final)
	if err := os.WriteFile(temp, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(TempGlob(final))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0] != temp {
		t.Errorf("glob matches = %v, want [%s]", matches, temp)
	}
}

func TestTempGlobEscapesMetacharacters(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "Show - S01E01 [1080p].mkv")

	temp := tempName(final)
	if err := os.WriteFile(temp, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(TempGlob(final))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("glob with brackets matched %d files, want 1", len(matches))
	}
}

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".Silo - S02E02.jr-tmp-12345.mkv", true},
		{"Silo - S02E02.mkv", false},
		{".hidden.mkv", false},
		{"not-hidden.jr-tmp-1.mkv", false},
	}

	for _, tt := range tests {
		if got := IsTempFile(tt.name); got != tt.want {
			t.Errorf("IsTempFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewBatchIDUnique(t *testing.T) {
	a := NewBatchID()
	b := NewBatchID()
	if a == b {
		t.Errorf("consecutive batch IDs collide: %s", a)
	}
}
