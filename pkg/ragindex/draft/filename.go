package draft

import (
	"regexp"
	"strings"
	"time"
)

// tokenRe matches `{{token}}` or `{{token|modifier}}` or
// `{{token|date:"<fmt>"}}` placeholders in a filename/note template.
var tokenRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*(?:\|\s*([^}]+?)\s*)?\}\}`)

// renderFilename expands a schema's filename_template against vars
// (id/title/schema.name/now), applies the requested case modifier, and
// appends ".md" if not already present (spec §4.11).
func renderFilename(tmpl string, vars map[string]string, now time.Time) string {
	out := renderTokens(tmpl, vars, now)
	if !strings.HasSuffix(out, ".md") {
		out += ".md"
	}

	return out
}

// renderTokens is the shared token-expansion engine behind filename and
// note/prompt template rendering: every `{{token}}`/`{{token|modifier}}` is
// substituted from vars, with an optional case or date modifier applied to
// the substituted value.
func renderTokens(tmpl string, vars map[string]string, now time.Time) string {
	return tokenRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := tokenRe.FindStringSubmatch(match)
		key, modifier := sub[1], sub[2]

		if key == "now" && modifier == "" {
			return now.Format(time.RFC3339)
		}

		val, ok := vars[key]
		if !ok {
			return match
		}

		return applyModifier(val, modifier, now)
	})
}

func applyModifier(val, modifier string, now time.Time) string {
	switch {
	case modifier == "":
		return val
	case modifier == "kebab-case":
		return toDelimited(val, '-')
	case modifier == "snake_case":
		return toDelimited(val, '_')
	case modifier == "SCREAMING_SNAKE_CASE":
		return strings.ToUpper(toDelimited(val, '_'))
	case modifier == "camelCase":
		return toCamel(val, false)
	case modifier == "PascalCase":
		return toCamel(val, true)
	case strings.HasPrefix(modifier, `date:"`) && strings.HasSuffix(modifier, `"`):
		goFmt := goDateFormat(modifier[len(`date:"`) : len(modifier)-1])
		return now.Format(goFmt)
	default:
		return val
	}
}

// wordSplitRe splits on any run of non-alphanumeric characters, the
// boundary most schema titles use (spaces, punctuation).
var wordSplitRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func words(s string) []string {
	var out []string
	for _, w := range wordSplitRe.Split(s, -1) {
		if w != "" {
			out = append(out, w)
		}
	}

	return out
}

func toDelimited(s string, sep byte) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}

	return strings.Join(ws, string(sep))
}

func toCamel(s string, pascal bool) string {
	ws := words(s)

	var b strings.Builder

	for i, w := range ws {
		lw := strings.ToLower(w)

		if i == 0 && !pascal {
			b.WriteString(lw)
			continue
		}

		b.WriteString(strings.ToUpper(lw[:1]))
		b.WriteString(lw[1:])
	}

	return b.String()
}

// goDateFormat translates a handful of common strftime-style directives
// (spec example: date:"%Y-%m-%d") into Go's reference-time layout; unknown
// directives pass through unchanged so unusual layouts still render.
func goDateFormat(layout string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
	)

	return replacer.Replace(layout)
}
