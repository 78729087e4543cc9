package chronex

import (
	"fmt"
	"strconv"
	"strings"
)

// entryKind tags a CronFieldEntry variant (§3 CronFieldEntry).
type entryKind int

const (
	entryWildcard entryKind = iota
	entryWildcardStep
	entryValue
	entryRange
	entryRangeStep
)

// CronFieldEntry is one comma-separated token of a cron field, already
// resolved to numeric bounds (symbolic month/DOW names included).
type CronFieldEntry struct {
	kind entryKind
	v    int // entryValue
	lo   int // entryRange, entryRangeStep
	hi   int
	step int // entryWildcardStep, entryRangeStep; always >= 1
}

// CronField is an ordered list of entries plus the field's domain.
type CronField struct {
	kind    fieldKind
	entries []CronFieldEntry
}

// Matches reports whether v lies in any entry of f.
func (f CronField) Matches(v int) bool {
	for _, e := range f.entries {
		if e.matches(f.kind, v) {
			return true
		}
	}
	return false
}

func (e CronFieldEntry) matches(k fieldKind, v int) bool {
	min, max := k.domain()
	switch e.kind {
	case entryWildcard:
		return true
	case entryWildcardStep:
		if v < min || v > max {
			return false
		}
		return (v-min)%e.step == 0
	case entryValue:
		return v == e.v
	case entryRange:
		if e.lo <= e.hi {
			return v >= e.lo && v <= e.hi
		}
		return v >= e.lo || v <= e.hi
	case entryRangeStep:
		if e.lo <= e.hi {
			if v < e.lo || v > e.hi {
				return false
			}
			return (v-e.lo)%e.step == 0
		}
		// Wrapped range: linearize into [0, length) starting at lo and
		// wrapping through max/min, then test the linear offset.
		var pos int
		switch {
		case v >= e.lo && v <= max:
			pos = v - e.lo
		case v >= min && v <= e.hi:
			pos = (max - e.lo + 1) + (v - min)
		default:
			return false
		}
		return pos%e.step == 0
	}
	return false
}

// isWildcard reports whether f is the unrestricted "*" field — used by the
// DOM/DOW OR join rule (§4.4).
func (f CronField) isWildcard() bool {
	return len(f.entries) == 1 && f.entries[0].kind == entryWildcard
}

// parseCronField parses one comma-separated cron field of kind k.
func parseCronField(k fieldKind, raw string) (CronField, *Diagnostic) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d := diag(CodeStructural, k.name(), "empty field", raw, -1)
		return CronField{}, &d
	}

	var entries []CronFieldEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			d := diag(CodeStructural, k.name(), "empty entry in field list", raw, -1)
			return CronField{}, &d
		}
		e, d := parseFieldEntry(k, part)
		if d != nil {
			return CronField{}, d
		}
		entries = append(entries, e)
	}
	return CronField{kind: k, entries: entries}, nil
}

func parseFieldEntry(k fieldKind, tok string) (CronFieldEntry, *Diagnostic) {
	body, stepStr, hasStep := strings.Cut(tok, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			d := diag(CodeStep, k.name(), "step must be a positive integer", tok, -1)
			return CronFieldEntry{}, &d
		}
		step = n
	}

	min, max := k.domain()

	if body == "*" {
		if hasStep {
			return CronFieldEntry{kind: entryWildcardStep, step: step}, nil
		}
		return CronFieldEntry{kind: entryWildcard}, nil
	}

	lo, hiStr, isRange := strings.Cut(body, "-")
	loVal, err := parseFieldValue(k, lo)
	if err != nil {
		d := diag(k.errCode(), k.name(), err.Error(), tok, -1)
		return CronFieldEntry{}, &d
	}

	if !isRange {
		if loVal < min || loVal > max {
			d := diag(k.errCode(), k.name(), fmt.Sprintf("value %d out of range [%d,%d]", loVal, min, max), tok, -1)
			return CronFieldEntry{}, &d
		}
		if hasStep {
			// bare v/N with no upper bound spans to the field's max (§4.2).
			return CronFieldEntry{kind: entryRangeStep, lo: loVal, hi: max, step: step}, nil
		}
		return CronFieldEntry{kind: entryValue, v: loVal}, nil
	}

	hiVal, err := parseFieldValue(k, hiStr)
	if err != nil {
		d := diag(k.errCode(), k.name(), err.Error(), tok, -1)
		return CronFieldEntry{}, &d
	}
	if loVal < min || loVal > max {
		d := diag(k.errCode(), k.name(), fmt.Sprintf("value %d out of range [%d,%d]", loVal, min, max), tok, -1)
		return CronFieldEntry{}, &d
	}
	if hiVal < min || hiVal > max {
		d := diag(k.errCode(), k.name(), fmt.Sprintf("value %d out of range [%d,%d]", hiVal, min, max), tok, -1)
		return CronFieldEntry{}, &d
	}
	if hasStep {
		return CronFieldEntry{kind: entryRangeStep, lo: loVal, hi: hiVal, step: step}, nil
	}
	return CronFieldEntry{kind: entryRange, lo: loVal, hi: hiVal}, nil
}

// parseFieldValue parses a single integer or (month/DOW only) three-letter
// name, normalizing DOW 7 to 0 (§4.2).
func parseFieldValue(k fieldKind, tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, fmt.Errorf("empty value")
	}
	if n, err := strconv.Atoi(tok); err == nil {
		if k == fieldDOW && n == 7 {
			n = 0
		}
		return n, nil
	}
	if k == fieldMonth || k == fieldDOW {
		if v, ok := resolveSymbol(k, tok); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("malformed value %q", tok)
}
