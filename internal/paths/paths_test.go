package paths

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAppDirUsesConfigDir(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	dir, err := AppDir()
	if err != nil {
		t.Fatalf("AppDir() error: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".config", "jellyrename")) {
		t.Errorf("AppDir() = %q, want suffix .config/jellyrename", dir)
	}
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	app, err := AppDir()
	if err != nil {
		t.Fatalf("AppDir() error: %v", err)
	}

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", ConfigPath, filepath.Join(app, "config.toml")},
		{"journal", JournalPath, filepath.Join(app, "journal.db")},
		{"log", LogPath, filepath.Join(app, "logs", "jellyrename.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("%s path error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActualUserIgnoresRootSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "root")
	if got := ActualUser(); got == "" {
		t.Error("ActualUser() returned empty string")
	}
}
