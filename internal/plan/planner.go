package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/guess"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
	"github.com/Nomadcxx/jellyrename/internal/subs"
)

// MsgPathCorrect is the no-op plan message.
const MsgPathCorrect = "Path already correct."

var planCounter atomic.Uint64

// Planner computes rename plans from media records and naming templates.
type Planner struct {
	templates      config.TemplatesConfig
	mode           ConflictMode
	createFolders  bool
	detectEncoding bool
	subtitleExts   map[string]bool
	log            *logging.ComponentLogger
}

// NewPlanner builds a Planner from configuration.
func NewPlanner(cfg *config.Config, logger *logging.Logger) (*Planner, error) {
	mode, err := ParseConflictMode(cfg.Conflict.Mode)
	if err != nil {
		return nil, err
	}

	subtitleExts := make(map[string]bool, len(cfg.Options.SubtitleExtensions))
	for _, ext := range cfg.Options.SubtitleExtensions {
		subtitleExts[strings.ToLower(ext)] = true
	}

	return &Planner{
		templates:      cfg.Templates,
		mode:           mode,
		createFolders:  cfg.Options.CreateFolders,
		detectEncoding: cfg.Options.DetectSubtitleEncoding,
		subtitleExts:   subtitleExts,
		log:            logger.Component("planner"),
	}, nil
}

// Mode returns the configured conflict mode.
func (p *Planner) Mode() ConflictMode { return p.mode }

// SetMode overrides the configured conflict mode.
func (p *Planner) SetMode(mode ConflictMode) { p.mode = mode }

// Plan computes the actions for one video file and its associates.
//
// The returned error is non-nil only for a fatal fail-mode conflict; all
// other problems (missing templates, unresolvable names, skip-mode
// conflicts) are reported through the plan's status and scoped to this one
// batch.
func (p *Planner) Plan(videoPath string, associates []string, rec media.Record) (*Plan, error) {
	pl := &Plan{
		ID:         nextPlanID(),
		SourcePath: videoPath,
		Status:     StatusPending,
	}

	videoPath = filepath.Clean(videoPath)
	if _, err := os.Lstat(videoPath); err != nil {
		pl.Status = StatusFailed
		pl.Message = fmt.Sprintf("source missing: %v", err)
		return pl, nil
	}

	parent := filepath.Dir(videoPath)
	originalStem := guess.Stem(videoPath)
	fields := p.recordFields(rec)

	// 1. Output directory
	outDir := parent
	if p.createFolders && p.templates.Folder != "" {
		folder, err := p.formatFolder(fields)
		if err != nil {
			pl.Status = StatusFailed
			pl.Message = err.Error()
			return pl, nil
		}
		if folder != "" {
			outDir = filepath.Join(parent, folder)
		}
	}
	if !strings.EqualFold(outDir, parent) && !pathExists(outDir) {
		pl.CreateDir = outDir
	}

	// 2. New video stem
	newStem, err := p.formatStem(rec, fields, originalStem)
	if err != nil {
		pl.Status = StatusFailed
		pl.Message = err.Error()
		return pl, nil
	}

	// 3. Target paths for the video and every associate
	type pairing struct {
		original string
		target   string
	}
	pairs := []pairing{{videoPath, filepath.Join(outDir, newStem+filepath.Ext(videoPath))}}

	for _, assoc := range associates {
		assoc = filepath.Clean(assoc)
		name := p.associateName(assoc, originalStem, newStem)
		pairs = append(pairs, pairing{assoc, filepath.Join(outDir, name)})
	}

	// 4. Emit actions only for files that actually change
	for _, pr := range pairs {
		if strings.EqualFold(pr.original, pr.target) {
			continue
		}
		kind := ActionRename
		if !strings.EqualFold(filepath.Dir(pr.original), filepath.Dir(pr.target)) {
			kind = ActionMove
		}
		pl.Actions = append(pl.Actions, Action{
			OriginalPath: pr.original,
			NewPath:      pr.target,
			Kind:         kind,
		})
	}

	// 5. No-op detection
	if len(pl.Actions) == 0 && pl.CreateDir == "" {
		pl.Status = StatusSkipped
		pl.Message = MsgPathCorrect
		return pl, nil
	}

	// 6. Intra-batch collision detection
	seen := make(map[string]string, len(pl.Actions))
	for _, a := range pl.Actions {
		key := strings.ToLower(a.NewPath)
		if prev, dup := seen[key]; dup {
			pl.Status = StatusConflictUnresolved
			pl.Message = fmt.Sprintf("internal conflict: %s and %s both resolve to %s",
				prev, a.OriginalPath, a.NewPath)
			return pl, nil
		}
		seen[key] = a.OriginalPath
	}

	// 7. External collision check. Overwrite and suffix are deferred to
	// execution time, where conflict state is authoritative.
	own := make(map[string]bool, len(pl.Actions))
	for _, a := range pl.Actions {
		own[strings.ToLower(filepath.Clean(a.OriginalPath))] = true
	}
	for _, a := range pl.Actions {
		if !pathExists(a.NewPath) || own[strings.ToLower(filepath.Clean(a.NewPath))] {
			continue
		}
		switch p.mode {
		case ConflictSkip:
			pl.Status = StatusSkipped
			pl.Message = fmt.Sprintf("target exists: %s", a.NewPath)
			return pl, nil
		case ConflictFail:
			pl.Status = StatusFailed
			pl.Message = fmt.Sprintf("target exists: %s", a.NewPath)
			return pl, NewError(KindTargetExists, a.NewPath, ErrTargetExists)
		}
	}

	pl.Status = StatusSuccess
	pl.Message = fmt.Sprintf("planned %d action(s)", len(pl.Actions))
	p.log.Debug("plan ready",
		logging.F("id", pl.ID),
		logging.F("source", videoPath),
		logging.F("actions", len(pl.Actions)))
	return pl, nil
}

// recordFields resolves template fields, blanking scene tags when
// preservation is disabled.
func (p *Planner) recordFields(rec media.Record) map[string]string {
	fields := rec.Fields()
	if !p.templates.PreserveSceneTags {
		if _, ok := fields["scene_tags"]; ok {
			fields["scene_tags"] = ""
		}
	}
	return fields
}

// formatStem renders the per-kind stem template and sanitizes the result.
func (p *Planner) formatStem(rec media.Record, fields map[string]string, originalStem string) (string, error) {
	var tmpl string
	switch rec.Kind() {
	case media.KindSeries:
		tmpl = p.templates.Episode
	case media.KindMovie:
		tmpl = p.templates.Movie
	default:
		// Nothing was guessed; keep the original name.
		return originalStem, nil
	}

	if strings.TrimSpace(tmpl) == "" {
		return "", NewError(KindMissingTemplate, "",
			fmt.Errorf("no %s template configured", rec.Kind()))
	}

	formatted, err := FormatTemplate(tmpl, fields)
	if err != nil {
		return "", err
	}

	// Scene tags ride along even when the template has no placeholder
	if p.templates.PreserveSceneTags && !strings.Contains(tmpl, "{scene_tags}") {
		if tags := fields["scene_tags"]; tags != "" {
			formatted += " [" + tags + "]"
		}
	}

	stem := SanitizeName(formatted)
	if stem == "" {
		return originalStem, nil
	}
	return stem, nil
}

// formatFolder renders the folder template, sanitizing each path segment
// so templates like "{show_title}/Season {season:02d}" stay nested.
func (p *Planner) formatFolder(fields map[string]string) (string, error) {
	formatted, err := FormatTemplate(p.templates.Folder, fields)
	if err != nil {
		return "", err
	}

	segments := strings.Split(formatted, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if s := SanitizeName(seg); s != "" {
			out = append(out, s)
		}
	}
	return filepath.Join(out...), nil
}

// associateName computes the new filename for an associated file. Subtitles
// get the subtitle template with language and flag fields; everything else
// inherits the video stem with its own extension.
func (p *Planner) associateName(assocPath, originalStem, newStem string) string {
	ext := filepath.Ext(assocPath)

	if !p.subtitleExts[strings.ToLower(ext)] {
		return newStem + ext
	}

	var info subs.Info
	if p.detectEncoding {
		info = subs.DetectWithEncoding(assocPath, originalStem)
	} else {
		info = subs.Detect(assocPath, originalStem)
	}

	tmpl := p.templates.Subtitle
	if strings.TrimSpace(tmpl) == "" {
		tmpl = "{stem}.{lang}{flags}"
	}

	fields := map[string]string{
		"stem":     newStem,
		"lang":     info.Lang,
		"flags":    info.FlagSuffix(),
		"encoding": info.Encoding,
	}
	formatted, err := FormatTemplate(tmpl, fields)
	if err != nil {
		return newStem + ext
	}

	name := collapseDots(formatted)
	if name == "" {
		name = newStem
	}
	return name + ext
}

func nextPlanID() string {
	return fmt.Sprintf("plan-%s-%04d",
		time.Now().Format("20060102-150405"), planCounter.Add(1))
}
