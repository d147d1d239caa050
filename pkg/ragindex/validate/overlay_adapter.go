package validate

import (
	"strings"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/overlay"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// NewOverlayHook adapts a loaded overlay runtime into an OverlayHook,
// prefixing every returned code with "LUA[...]" when the guest hasn't
// already done so (spec §4.6: "Each returned diagnostic carries a code
// prefixed by LUA[...]"). A nil rt yields a nil hook, so Run skips overlay
// augmentation entirely when no overlay is configured.
func NewOverlayHook(rt *overlay.Runtime) OverlayHook {
	if rt == nil {
		return nil
	}

	return func(doc *model.Document, schemaName string) ([]Diagnostic, error) {
		raw, err := rt.ValidateDoc(doc, schemaName)
		if err != nil {
			return nil, err
		}

		out := make([]Diagnostic, 0, len(raw))

		for _, d := range raw {
			code := d.Code
			if !strings.HasPrefix(code, ragerr.CodeLuaPrefix+"[") {
				code = ragerr.CodeLuaPrefix + "[" + code + "]"
			}

			out = append(out, Diagnostic{
				Severity: severityFromString(d.Severity),
				Code:     code,
				Message:  d.Message,
				Path:     doc.RelPath,
				DocID:    doc.ID,
				Line:     d.Line,
			})
		}

		return out, nil
	}
}

func severityFromString(s string) schema.Severity {
	switch s {
	case "warn", "warning":
		return schema.SeverityWarning
	case "ignore":
		return schema.SeverityIgnore
	default:
		return schema.SeverityError
	}
}
