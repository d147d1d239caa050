package draft

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/collector"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/discovery"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/frontmatter"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
)

// SubmitInput is the parameters to a draft submit call.
type SubmitInput struct {
	DraftID       string
	Payload       []byte // JSON {frontmatter, sections} or a reconstructed markdown file
	AllowOversize bool
	Now           time.Time
}

// SubmitResponse reports the committed note's location.
type SubmitResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"` // relative to the config directory
}

var submitHeadingRe = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)

// Submit parses the payload, enforces readonly/oversize constraints,
// assembles the final note, re-runs the full validator against (current
// docs ∪ this proposed note), and atomically commits on success (spec
// §4.11 submit).
func (s *Store) Submit(in SubmitInput) (SubmitResponse, *validate.Report, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	rec, err := s.load(in.DraftID)
	if err != nil {
		return SubmitResponse{}, nil, err
	}

	if rec.Expired(now) {
		_ = s.delete(in.DraftID)
		return SubmitResponse{}, nil, &ragerr.Error{Code: ragerr.CodeDraftExpired, DocID: rec.ID, Err: fmt.Errorf("draft %q expired", in.DraftID)}
	}

	fmOverrides, sections, err := parsePayload(in.Payload)
	if err != nil {
		return SubmitResponse{}, nil, fmt.Errorf("draft: submit: parse payload: %w", err)
	}

	for _, ro := range rec.Constraints.Readonly {
		if _, mutated := fmOverrides[ro]; mutated {
			return SubmitResponse{}, nil, &ragerr.Error{Code: ragerr.CodeReadonlyField, DocID: rec.ID, Err: fmt.Errorf("payload overrides readonly key %q", ro)}
		}
	}

	if !in.AllowOversize {
		for _, h := range rec.Constraints.Headings {
			if h.MaxLines <= 0 {
				continue
			}

			actual := countLines(sections[h.Name])
			if actual > h.MaxLines {
				return SubmitResponse{}, nil, &ragerr.Error{
					Code:  ragerr.CodeLineCount,
					DocID: rec.ID,
					Err:   fmt.Errorf("heading %q exceeds max_lines: max=%d actual=%d", h.Name, h.MaxLines, actual),
				}
			}
		}
	}

	finalFM := map[string]any{}
	for k, v := range rec.SeedFrontmatter {
		finalFM[k] = v
	}

	for k, v := range fmOverrides {
		finalFM[k] = v
	}

	finalFM["id"] = rec.ID

	var body strings.Builder

	body.WriteString("# ")
	body.WriteString(rec.PrimaryHeading)
	body.WriteString("\n\n")

	for _, h := range rec.Constraints.Headings {
		body.WriteString("## ")
		body.WriteString(h.Name)
		body.WriteString("\n\n")
		body.WriteString(strings.TrimSpace(sections[h.Name]))
		body.WriteString("\n\n")
	}

	mapping := frontmatter.MappingFromGo(finalFM)

	finalBytes, err := frontmatter.Rewrite(frontmatter.FormatYAML, mapping, body.String())
	if err != nil {
		return SubmitResponse{}, nil, fmt.Errorf("draft: submit: render note: %w", err)
	}

	report, err := s.validateAgainstCurrent(rec, finalBytes, now)
	if err != nil {
		return SubmitResponse{}, nil, err
	}

	if !report.OK {
		return SubmitResponse{}, report, fmt.Errorf("draft: submit: %q fails validation", rec.ID)
	}

	if err := ragfs.WriteFileAtomic(rec.FilePath, finalBytes, 0o644); err != nil {
		return SubmitResponse{}, report, fmt.Errorf("draft: submit: write note: %w", err)
	}

	if err := s.delete(in.DraftID); err != nil {
		return SubmitResponse{}, report, err
	}

	relPath, err := relToConfigDir(s.Cfg.ConfigDir, rec.FilePath)
	if err != nil {
		relPath = rec.FilePath
	}

	return SubmitResponse{ID: rec.ID, Path: relPath}, report, nil
}

// validateAgainstCurrent runs the full validator over every currently
// discovered document plus the proposed note (spec §4.11: "Run the full
// Validator against (current docs ∪ this proposed note)").
func (s *Store) validateAgainstCurrent(rec Record, finalBytes []byte, now time.Time) (*validate.Report, error) {
	paths, err := discovery.Walk(discovery.Options{
		Roots:             s.Cfg.Bases,
		FilePatterns:      s.Cfg.FilePatterns,
		IgnoreGlobs:       s.Cfg.IgnoreGlobs,
		FollowSymlinks:    s.Cfg.FollowSymlinks,
		UseDefaultIgnores: true,
	})
	if err != nil {
		return nil, fmt.Errorf("draft: submit: discover current docs: %w", err)
	}

	snap, _, err := collector.Collect(paths, nil, true)
	if err != nil {
		return nil, fmt.Errorf("draft: submit: collect current docs: %w", err)
	}

	newDoc := collector.ParseBytes(rec.FilePath, finalBytes, model.Fingerprint{ModTime: now, Size: int64(len(finalBytes))})
	newDoc.RelPath, _ = relToConfigDir(s.Cfg.ConfigDir, rec.FilePath)
	snap.Docs = append(snap.Docs, newDoc)

	return validate.Run(snap, validate.Options{
		Schemas:         s.Cfg.Schemas,
		AllowedStatuses: s.Cfg.AllowedStatuses,
		Overlay:         validate.NewOverlayHook(s.Overlay),
	})
}

// parsePayload accepts either the JSON {frontmatter, sections} shape or a
// reconstructed Markdown file (frontmatter block + `## heading` sections),
// per spec §4.11 submit.
func parsePayload(data []byte) (map[string]any, map[string]string, error) {
	var jsonPayload struct {
		Frontmatter map[string]any    `json:"frontmatter"`
		Sections    map[string]string `json:"sections"`
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &jsonPayload); err == nil {
			return jsonPayload.Frontmatter, jsonPayload.Sections, nil
		}
	}

	parsed, err := frontmatter.Parse(data, "draft-submit.md")
	if err != nil {
		return nil, nil, fmt.Errorf("parse markdown payload: %w", err)
	}

	fm := frontmatter.ToGo(parsed.Raw)
	sections := sectionsFromBody(parsed.Body)

	return fm, sections, nil
}

func sectionsFromBody(body string) map[string]string {
	sections := map[string]string{}

	matches := submitHeadingRe.FindAllStringSubmatchIndex(body, -1)
	for i, m := range matches {
		name := body[m[2]:m[3]]
		contentStart := m[1]

		contentEnd := len(body)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}

		sections[name] = strings.TrimSpace(body[contentStart:contentEnd])
	}

	return sections
}

func countLines(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	return strings.Count(s, "\n") + 1
}

func relToConfigDir(configDir, path string) (string, error) {
	return filepath.Rel(configDir, path)
}
