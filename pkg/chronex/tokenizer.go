package chronex

import "strings"

// bodyKind classifies the schedule body text after TZ= and {options} have
// been stripped off (§4.7).
type bodyKind int

const (
	bodyCron bodyKind = iota
	bodyAlias
	bodyInterval
	bodyOnce
)

// tokens is the result of splitting one expression string into its three
// syntactic parts (§4.7).
type tokens struct {
	timezone   string // empty if no TZ= prefix
	body       string
	bodyKind   bodyKind
	optionsRaw string // empty if no {...} suffix
}

var aliasTable = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// tokenize splits a trimmed expression string into TZ=/body/{options} parts
// and classifies the body kind. It performs no field-level validation.
func tokenize(raw string) (tokens, *Diagnostic) {
	s := strings.TrimSpace(raw)
	if s == "" {
		d := diag(CodeStructural, "", "empty expression", raw, -1)
		return tokens{}, &d
	}

	var tz string
	if strings.HasPrefix(s, "TZ=") {
		rest := s[len("TZ="):]
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			d := diag(CodeStructural, "", "TZ= prefix missing a schedule body", raw, -1)
			return tokens{}, &d
		}
		tz = rest[:i]
		if tz == "" {
			d := diag(CodeStructural, "", "TZ= prefix has an empty zone id", raw, -1)
			return tokens{}, &d
		}
		s = strings.TrimSpace(rest[i:])
	}

	optionsRaw, body, d := extractOptions(s)
	if d != nil {
		return tokens{}, d
	}

	kind := classifyBody(body)
	return tokens{timezone: tz, body: body, bodyKind: kind, optionsRaw: optionsRaw}, nil
}

// extractOptions finds the trailing `{...}` block: locate the last '}', then
// its matching '{' (the nearest preceding one). Anything after the closing
// brace must be blank; an unmatched brace is a parse error (§4.7).
func extractOptions(s string) (optionsRaw, body string, d *Diagnostic) {
	closeIdx := strings.LastIndexByte(s, '}')
	if closeIdx < 0 {
		if strings.ContainsRune(s, '{') {
			diagv := diag(CodeStructural, "", "unmatched '{' in expression", s, -1)
			return "", "", &diagv
		}
		return "", s, nil
	}
	if strings.ContainsRune(s[closeIdx+1:], '}') {
		diagv := diag(CodeStructural, "", "unexpected trailing '}' in expression", s, -1)
		return "", "", &diagv
	}
	if strings.TrimSpace(s[closeIdx+1:]) != "" {
		diagv := diag(CodeStructural, "", "unexpected text after options block", s, -1)
		return "", "", &diagv
	}
	openIdx := strings.LastIndexByte(s[:closeIdx], '{')
	if openIdx < 0 {
		diagv := diag(CodeStructural, "", "unmatched '}' in expression", s, -1)
		return "", "", &diagv
	}
	return s[openIdx+1 : closeIdx], strings.TrimSpace(s[:openIdx]), nil
}

// classifyBody implements §4.7's body classification rule.
func classifyBody(body string) bodyKind {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "@every" || strings.HasPrefix(trimmed, "@every "):
		return bodyInterval
	case strings.HasPrefix(trimmed, "@once"):
		return bodyOnce
	case strings.HasPrefix(trimmed, "@"):
		return bodyAlias
	default:
		return bodyCron
	}
}

// expandAlias resolves a recognized "@..." alias to its 5-field cron
// equivalent, case-insensitively (§4.7). ok is false for an unknown alias
// (E010).
func expandAlias(body string) (string, bool) {
	cron, ok := aliasTable[strings.ToLower(strings.TrimSpace(body))]
	return cron, ok
}

// splitCronFields whitespace-splits a cron body into 5 or 6 tokens.
func splitCronFields(body string) ([]string, bool) {
	fields := strings.Fields(body)
	if len(fields) != 5 && len(fields) != 6 {
		return nil, false
	}
	return fields, true
}
