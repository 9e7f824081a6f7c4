package subs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		videoStem string
		want      Info
	}{
		{
			name:      "plain language",
			path:      "Show.S01E01.en.srt",
			videoStem: "Show.S01E01",
			want:      Info{Lang: "en"},
		},
		{
			name:      "forced flag",
			path:      "Show.S01E01.en.forced.srt",
			videoStem: "Show.S01E01",
			want:      Info{Lang: "en", Forced: true},
		},
		{
			name:      "sdh and cc",
			path:      "Movie (2024).eng.sdh.cc.srt",
			videoStem: "Movie (2024)",
			want:      Info{Lang: "eng", SDH: true, CC: true},
		},
		{
			name:      "hi maps to sdh",
			path:      "Movie.pt.hi.srt",
			videoStem: "Movie",
			want:      Info{Lang: "pt", SDH: true},
		},
		{
			name:      "no language",
			path:      "Show.S01E01.srt",
			videoStem: "Show.S01E01",
			want:      Info{},
		},
		{
			name:      "long parts are not language codes",
			path:      "Movie.english.srt",
			videoStem: "Movie",
			want:      Info{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.path, tt.videoStem)
			if got != tt.want {
				t.Errorf("Detect(%q, %q) = %+v, want %+v", tt.path, tt.videoStem, got, tt.want)
			}
		})
	}
}

func TestFlagSuffix(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{}, ""},
		{Info{Forced: true}, ".forced"},
		{Info{Forced: true, SDH: true}, ".forced.sdh"},
		{Info{SDH: true, CC: true}, ".sdh.cc"},
	}

	for _, tt := range tests {
		if got := tt.info.FlagSuffix(); got != tt.want {
			t.Errorf("FlagSuffix(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestDetectWithEncoding(t *testing.T) {
	dir := t.TempDir()

	bomFile := filepath.Join(dir, "video.en.srt")
	if err := os.WriteFile(bomFile, append([]byte{0xEF, 0xBB, 0xBF}, []byte("1\n00:00:01 --> 00:00:02\nhello\n")...), 0644); err != nil {
		t.Fatal(err)
	}

	info := DetectWithEncoding(bomFile, "video")
	if info.Lang != "en" {
		t.Errorf("lang = %q, want en", info.Lang)
	}
	if info.Encoding != "utf-8" {
		t.Errorf("encoding = %q, want utf-8", info.Encoding)
	}

	utf16File := filepath.Join(dir, "video.de.srt")
	if err := os.WriteFile(utf16File, []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, 0644); err != nil {
		t.Fatal(err)
	}
	if got := DetectWithEncoding(utf16File, "video").Encoding; got != "utf-16le" {
		t.Errorf("encoding = %q, want utf-16le", got)
	}
}
