package draft

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/overlay"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
)

const builtinNoteTemplate = "# {{title}}\n\n## Summary\n\nTBD\n"

// Store is the draft reservation/commit workflow over one repository's
// configured schemas and bases (spec §4.11). A nil Overlay is valid —
// every overlay capability then degrades to "no override."
type Store struct {
	Cfg     *config.Config
	Overlay *overlay.Runtime
}

// New builds a Store for cfg, optionally backed by a loaded overlay runtime.
func New(cfg *config.Config, ov *overlay.Runtime) *Store {
	return &Store{Cfg: cfg, Overlay: ov}
}

func (s *Store) draftsDir() string {
	return filepath.Join(s.Cfg.ConfigDir, ".cli-rag", "drafts")
}

func (s *Store) draftPath(draftID string) string {
	return filepath.Join(s.draftsDir(), draftID+".json")
}

// StartInput is the parameters to a draft start call.
type StartInput struct {
	SchemaName string
	Title      string
	ExplicitID string
	Now        time.Time
}

// StartResponse mirrors the structured start response (spec §4.11: "Emit
// the structured start response").
type StartResponse struct {
	DraftID         string         `json:"draftId"`
	ID              string         `json:"id"`
	Filename        string         `json:"filename"`
	Base            string         `json:"base"`
	NoteTemplate    string         `json:"noteTemplate"`
	SeedFrontmatter map[string]any `json:"seedFrontmatter"`
	Constraints     Constraints    `json:"constraints"`
	Instructions    string         `json:"instructions"`
}

// Start reserves an id and destination, renders the note/prompt templates,
// derives submit-time constraints, and persists a Record (spec §4.11
// start).
func (s *Store) Start(in StartInput) (StartResponse, error) {
	if len(s.Cfg.Bases) == 0 {
		return StartResponse{}, fmt.Errorf("draft: start: no bases configured")
	}

	byName := schema.ByName(s.Cfg.Schemas)

	sch, ok := byName[in.SchemaName]
	if !ok {
		return StartResponse{}, fmt.Errorf("draft: start: unknown schema %q", in.SchemaName)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	result, err := pipeline.Run(pipeline.Options{
		Cfg:        s.Cfg,
		FullRescan: true,
		Overlay:    validate.NewOverlayHook(s.Overlay),
		Now:        now,
	})
	if err != nil {
		return StartResponse{}, fmt.Errorf("draft: start: load current docs: %w", err)
	}

	id, err := s.reserveID(sch, result.Resolved.IDs(), in.ExplicitID, now)
	if err != nil {
		return StartResponse{}, err
	}

	base, destDir, err := s.destination(sch)
	if err != nil {
		return StartResponse{}, err
	}

	vars := map[string]string{
		"id":          id,
		"title":       in.Title,
		"schema.name": sch.Name,
	}

	filenameTmpl := "{{id}}"
	if sch.New != nil && sch.New.FilenameTemplate != "" {
		filenameTmpl = sch.New.FilenameTemplate
	}

	filename := renderFilename(filenameTmpl, vars, now)

	target := filepath.Join(destDir, filename)
	if err := checkContainment(s.Cfg.Bases, target); err != nil {
		return StartResponse{}, err
	}

	noteTemplate := s.resolveNoteTemplate(sch, vars, now)
	promptTemplate := s.resolvePromptTemplate(sch, vars, now)

	seedFM, renderedKeys, err := s.seedFrontmatter(sch, id, in.Title, vars, now)
	if err != nil {
		return StartResponse{}, err
	}

	constraints := deriveConstraints(sch, renderedKeys)

	rec := Record{
		DraftID:         newDraftID(now),
		Schema:          sch.Name,
		ID:              id,
		Title:           in.Title,
		Filename:        filename,
		Base:            base,
		FilePath:        target,
		CreatedAt:       now.Unix(),
		TTLSeconds:      DefaultTTLSeconds,
		NoteTemplate:    noteTemplate,
		SeedFrontmatter: seedFM,
		Constraints:     constraints,
		Instructions:    promptTemplate,
		ContentHash:     contentHash(noteTemplate),
		PrimaryHeading:  in.Title,
	}

	if err := s.persist(rec); err != nil {
		return StartResponse{}, err
	}

	return StartResponse{
		DraftID:         rec.DraftID,
		ID:              rec.ID,
		Filename:        rec.Filename,
		Base:            rec.Base,
		NoteTemplate:    rec.NoteTemplate,
		SeedFrontmatter: rec.SeedFrontmatter,
		Constraints:     rec.Constraints,
		Instructions:    rec.Instructions,
	}, nil
}

func (s *Store) reserveID(sch *schema.Schema, existingIDs []string, explicitID string, now time.Time) (string, error) {
	if explicitID != "" {
		if containsID(existingIDs, explicitID) {
			return "", fmt.Errorf("draft: start: id %q already exists", explicitID)
		}

		return explicitID, nil
	}

	if s.Overlay != nil {
		if id, ok, err := s.Overlay.IDGenerator(sch.Name, map[string]any{"existingIds": existingIDs}); err != nil {
			return "", fmt.Errorf("draft: start: overlay id_generator: %w", err)
		} else if ok {
			if containsID(existingIDs, id) {
				return "", fmt.Errorf("draft: start: overlay-generated id %q already exists", id)
			}

			return id, nil
		}
	}

	prefix, padding := "", 0
	strategy := schema.IDGenIncrement

	if sch.New != nil {
		if sch.New.IDGenerator != "" {
			strategy = sch.New.IDGenerator
		}

		prefix = sch.New.IDPrefix
		padding = sch.New.IDPadding
	}

	switch strategy {
	case schema.IDGenDatetime:
		return generateDatetimeID(prefix, now), nil
	case schema.IDGenUUID:
		return generateUUIDID(prefix)
	default:
		return generateIncrementID(existingIDs, prefix, padding), nil
	}
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}

	return false
}

// destination resolves (schema authoring destination | schema output_path |
// first base) and returns the chosen base plus the absolute destination
// directory (spec §4.11).
func (s *Store) destination(sch *schema.Schema) (base string, dir string, err error) {
	base = s.Cfg.Bases[0]

	if sub, ok := s.Cfg.AuthoringDest[sch.Name]; ok && sub != "" {
		return base, filepath.Join(base, sub), nil
	}

	if sch.New != nil && sch.New.DestinationPath != "" {
		return base, filepath.Join(base, sch.New.DestinationPath), nil
	}

	return base, base, nil
}

// checkContainment rejects any resolved path escaping every configured
// base (spec §4.11: "refusing any resolved path not under a configured
// base").
func checkContainment(bases []string, target string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("draft: resolve target path: %w", err)
	}

	for _, b := range bases {
		absBase, err := filepath.Abs(b)
		if err != nil {
			continue
		}

		rel, err := filepath.Rel(absBase, absTarget)
		if err != nil {
			continue
		}

		if rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)) {
			return nil
		}
	}

	return &ragerr.Error{Code: ragerr.CodeContainment, Path: target, Err: fmt.Errorf("draft target escapes configured bases")}
}

func (s *Store) resolveNoteTemplate(sch *schema.Schema, vars map[string]string, now time.Time) string {
	if s.Overlay != nil {
		if tmpl, ok, err := s.Overlay.TemplateNote(templateContext(vars)); err == nil && ok {
			return renderTokens(tmpl, vars, now)
		}
	}

	if sch.New != nil && sch.New.NoteTemplate != "" {
		return renderTokens(sch.New.NoteTemplate, vars, now)
	}

	if tmpl, ok := s.readTemplateSource(sch); ok {
		return renderTokens(tmpl, vars, now)
	}

	return renderTokens(builtinNoteTemplate, vars, now)
}

func (s *Store) resolvePromptTemplate(sch *schema.Schema, vars map[string]string, now time.Time) string {
	if s.Overlay != nil {
		if tmpl, ok, err := s.Overlay.TemplatePrompt(templateContext(vars)); err == nil && ok {
			return renderTokens(tmpl, vars, now)
		}
	}

	if sch.New != nil && sch.New.PromptTemplate != "" {
		return renderTokens(sch.New.PromptTemplate, vars, now)
	}

	return ""
}

// readTemplateSource tries each schema.New.TemplateSources entry in order,
// resolving relative to the config directory, returning the first one that
// exists on disk (spec §4.11: "repo-level template file").
func (s *Store) readTemplateSource(sch *schema.Schema) (string, bool) {
	if sch.New == nil {
		return "", false
	}

	for _, rel := range sch.New.TemplateSources {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.Cfg.ConfigDir, rel)
		}

		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), true
		}
	}

	return "", false
}

func templateContext(vars map[string]string) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}

	return out
}

// seedFrontmatter assembles the rendered frontmatter map, merging any
// overlay-provided overrides over the base id/title/status fields
// preserving other keys (spec §4.11).
func (s *Store) seedFrontmatter(sch *schema.Schema, id, title string, vars map[string]string, now time.Time) (map[string]any, []string, error) {
	fm := map[string]any{
		"id":     id,
		"title":  title,
		"status": "draft",
	}

	if len(sch.Required) > 0 {
		for _, k := range sch.Required {
			if _, ok := fm[k]; !ok {
				fm[k] = nil
			}
		}
	}

	if s.Overlay != nil {
		overrides, ok, err := s.Overlay.RenderFrontmatter(sch.Name, title, templateContext(vars))
		if err != nil {
			return nil, nil, fmt.Errorf("draft: start: overlay render_frontmatter: %w", err)
		}

		if ok {
			for k, v := range overrides {
				fm[k] = v
			}
		}
	}

	fm["id"] = id

	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return fm, keys, nil
}

func (s *Store) persist(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("draft: encode record: %w", err)
	}

	if err := ragfs.WriteFileAtomic(s.draftPath(rec.DraftID), data, 0o644); err != nil {
		return fmt.Errorf("draft: persist record: %w", err)
	}

	return nil
}

func (s *Store) load(draftID string) (Record, error) {
	data, err := os.ReadFile(s.draftPath(draftID))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, &ragerr.Error{Code: ragerr.CodeDraftNotFound, Err: fmt.Errorf("draft %q not found", draftID)}
		}

		return Record{}, fmt.Errorf("draft: read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("draft: decode record: %w", err)
	}

	return rec, nil
}

func (s *Store) delete(draftID string) error {
	if err := os.Remove(s.draftPath(draftID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("draft: delete record: %w", err)
	}

	return nil
}

// List enumerates every outstanding draft record, optionally filtered to
// those older than staleDays (spec §4.11 list).
func (s *Store) List(staleDays int, now time.Time) ([]Record, error) {
	entries, err := os.ReadDir(s.draftsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("draft: list: %w", err)
	}

	var out []Record

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		draftID := strings.TrimSuffix(e.Name(), ".json")

		rec, err := s.load(draftID)
		if err != nil {
			continue
		}

		if staleDays > 0 {
			age := now.Sub(time.Unix(rec.CreatedAt, 0))
			if age < time.Duration(staleDays)*24*time.Hour {
				continue
			}
		}

		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DraftID < out[j].DraftID })

	return out, nil
}

// Cancel deletes the named draft, or the sole outstanding draft when
// draftID is empty (spec §4.11 cancel).
func (s *Store) Cancel(draftID string, now time.Time) (string, error) {
	if draftID != "" {
		if _, err := s.load(draftID); err != nil {
			return "", err
		}

		return draftID, s.delete(draftID)
	}

	all, err := s.List(0, now)
	if err != nil {
		return "", err
	}

	switch len(all) {
	case 0:
		return "", &ragerr.Error{Code: ragerr.CodeDraftNotFound, Err: fmt.Errorf("no drafts to cancel")}
	case 1:
		return all[0].DraftID, s.delete(all[0].DraftID)
	default:
		return "", &ragerr.Error{Code: ragerr.CodeMultipleDrafts, Err: fmt.Errorf("multiple drafts exist; specify draft-id")}
	}
}

func newDraftID(now time.Time) string {
	id, err := generateUUIDID("")
	if err == nil {
		return id
	}

	// crypto/rand-backed UUIDv7 generation should never fail; fall back to
	// the timestamp-based scheme rather than leaving the draft unaddressable.
	return generateDatetimeID("d", now)
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
