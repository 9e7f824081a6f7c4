// Package scanner discovers media files and their sidecar associates.
// Each video file becomes one Item grouping the video with every same-stem
// subtitle, nfo, or artwork file next to it.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/executor"
	"github.com/Nomadcxx/jellyrename/internal/guess"
)

// Item is one video file plus its associated sidecar files.
type Item struct {
	VideoPath  string
	Associates []string
}

// Scanner walks input paths looking for media.
type Scanner struct {
	videoExts   map[string]bool
	sidecarExts map[string]bool
}

// New builds a Scanner from the configured extension lists.
func New(cfg *config.Config) *Scanner {
	s := &Scanner{
		videoExts:   make(map[string]bool),
		sidecarExts: make(map[string]bool),
	}
	for _, ext := range cfg.Options.VideoExtensions {
		s.videoExts[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.Options.SubtitleExtensions {
		s.sidecarExts[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.Options.AssociateExtensions {
		s.sidecarExts[strings.ToLower(ext)] = true
	}
	return s
}

// Scan walks the given paths and groups what it finds. A path that is a
// plain video file becomes a single item; directories are walked
// recursively. Hidden files and staging temp leftovers are ignored.
func (s *Scanner) Scan(paths []string) ([]Item, error) {
	var videos []string
	sidecars := make(map[string][]string) // keyed by dir + lowercased stem

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if s.IsVideo(root) {
				videos = append(videos, filepath.Clean(root))
				s.collectSiblings(filepath.Dir(root), sidecars)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if s.skip(d.Name()) {
				return nil
			}
			switch {
			case s.IsVideo(path):
				videos = append(videos, path)
			case s.isSidecar(path):
				key := sidecarKey(path)
				sidecars[key] = append(sidecars[key], path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(videos)

	items := make([]Item, 0, len(videos))
	for _, v := range videos {
		items = append(items, Item{
			VideoPath:  v,
			Associates: s.associatesFor(v, sidecars),
		})
	}
	return items, nil
}

// associatesFor matches sidecars whose stem starts with the video stem, so
// "Show.S01E01.en.srt" attaches to "Show.S01E01.mkv".
func (s *Scanner) associatesFor(videoPath string, sidecars map[string][]string) []string {
	stem := strings.ToLower(guess.Stem(videoPath))
	dir := filepath.Dir(videoPath)

	var out []string
	for key, paths := range sidecars {
		keyDir, keyStem := splitSidecarKey(key)
		if keyDir != dir {
			continue
		}
		if keyStem == stem || strings.HasPrefix(keyStem, stem+".") {
			out = append(out, paths...)
		}
	}
	sort.Strings(out)
	return out
}

// collectSiblings indexes sidecar files next to an explicitly given video.
func (s *Scanner) collectSiblings(dir string, sidecars map[string][]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || s.skip(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if s.isSidecar(path) {
			key := sidecarKey(path)
			sidecars[key] = append(sidecars[key], path)
		}
	}
}

func (s *Scanner) skip(name string) bool {
	return strings.HasPrefix(name, ".") || executor.IsTempFile(name)
}

// IsVideo reports whether path carries a configured video extension.
func (s *Scanner) IsVideo(path string) bool {
	return s.videoExts[strings.ToLower(filepath.Ext(path))]
}

func (s *Scanner) isSidecar(path string) bool {
	return s.sidecarExts[strings.ToLower(filepath.Ext(path))]
}

// sidecarKey is dir + "\x00" + lowercased stem, where the stem has
// language/flag parts intact; prefix matching happens at lookup time.
func sidecarKey(path string) string {
	return filepath.Dir(path) + "\x00" + strings.ToLower(guess.Stem(path))
}

func splitSidecarKey(key string) (dir, stem string) {
	i := strings.IndexByte(key, '\x00')
	return key[:i], key[i+1:]
}
