package chronex

import (
	"strings"
	"time"
)

// Options holds the parsed `{key:value,...}` suffix of an expression string
// (§3 Options, §4.8).
type Options struct {
	Jitter  *time.Duration
	Stagger *time.Duration
	Window  *time.Duration
	From    *time.Time
	Until   *time.Time
	Max     *int
	Tags    []string // insertion order preserved

	// UntilDateOnly records whether Until was written as a bare date
	// ("2026-01-01") and promoted to the 23:59:59.999 end-of-day sentinel,
	// so String() can render it back in its original short form (§4.9,
	// spec.md "until date-only ... renders short").
	UntilDateOnly bool
}

const dateOnlyLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// isWarningCode reports whether code is a warning-class diagnostic (§4.11):
// everything else is an error that fails strict Parse immediately.
func isWarningCode(code Code) bool {
	return code == CodeJitterRatio || code == CodeStaggerRatio || code == CodeDupTag
}

// parseOptions parses the body of an `{...}` options block (braces already
// stripped by the tokenizer) and returns every diagnostic found — callers
// decide whether to stop at the first error (Parse) or keep going (Validate).
// loc resolves date-only from/until values to the expression's declared
// timezone (§3: "in the applicable timezone"); pass time.UTC if the
// expression carries no TZ= prefix.
func parseOptions(raw string, loc *time.Location) (Options, []Diagnostic) {
	var opt Options
	var diags []Diagnostic
	if strings.TrimSpace(raw) == "" {
		return opt, nil
	}

	seen := map[string]string{} // last-wins per §4.8
	var order []string
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			diags = append(diags, diag(CodeOptionType, "", "option requires key:value", pair, -1))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if _, dup := seen[key]; !dup {
			order = append(order, key)
		}
		seen[key] = value
	}

	for _, key := range order {
		value := seen[key]
		switch key {
		case "jitter":
			d, err := ParseDuration(value)
			if err != nil {
				diags = append(diags, diag(CodeOptionType, key, "jitter must be a duration", value, -1))
				continue
			}
			if d <= 0 {
				diags = append(diags, diag(CodeOptionType, key, "jitter must be strictly positive", value, -1))
				continue
			}
			opt.Jitter = &d
		case "stagger":
			d, err := ParseDuration(value)
			if err != nil {
				diags = append(diags, diag(CodeOptionType, key, "stagger must be a duration", value, -1))
				continue
			}
			if d <= 0 {
				diags = append(diags, diag(CodeStaggerValue, key, "stagger must be strictly positive", value, -1))
				continue
			}
			opt.Stagger = &d
		case "window":
			d, err := ParseDuration(value)
			if err != nil {
				diags = append(diags, diag(CodeOptionType, key, "window must be a duration", value, -1))
				continue
			}
			if d <= 0 {
				diags = append(diags, diag(CodeWindowValue, key, "window must be strictly positive", value, -1))
				continue
			}
			opt.Window = &d
		case "from":
			ts, _, err := parseOptionTime(value, loc)
			if err != nil {
				diags = append(diags, diag(CodeOptionType, key, "malformed from timestamp", value, -1))
				continue
			}
			opt.From = &ts
		case "until":
			ts, isDateOnly, err := parseOptionTime(value, loc)
			if err != nil {
				diags = append(diags, diag(CodeOptionType, key, "malformed until timestamp", value, -1))
				continue
			}
			if isDateOnly {
				ts = time.Date(ts.Year(), ts.Month(), ts.Day(), 23, 59, 59, 999_000_000, ts.Location())
			}
			opt.Until = &ts
			opt.UntilDateOnly = isDateOnly
		case "max":
			n, ok := atoiStrict(value)
			if !ok {
				diags = append(diags, diag(CodeOptionType, key, "max must be an integer", value, -1))
				continue
			}
			if n <= 0 {
				diags = append(diags, diag(CodeMaxValue, key, "max must be positive", value, -1))
				continue
			}
			opt.Max = &n
		case "tag":
			tags := strings.Split(value, "+")
			opt.Tags = tags
			if hasDuplicateTag(tags) {
				diags = append(diags, diag(CodeDupTag, key, "duplicate tag", value, -1))
			}
		default:
			diags = append(diags, diag(CodeOptionKey, key, "unknown option key", key, -1))
		}
	}

	if opt.From != nil && opt.Until != nil && !opt.From.Before(*opt.Until) {
		diags = append(diags, diag(CodeFromUntil, "", "from must be before until", "", -1))
	}

	return opt, diags
}

func hasDuplicateTag(tags []string) bool {
	seen := make(map[string]bool, len(tags))
	for _, tg := range tags {
		if seen[tg] {
			return true
		}
		seen[tg] = true
	}
	return false
}

// parseOptionTime parses an ISO-8601 date-only or full datetime-with-offset
// value. isDateOnly reports whether the value carried no time-of-day
// component (§4.8: date-only from means start-of-day). A date-only value is
// anchored to loc, the expression's declared timezone, rather than UTC, so
// the from/until day boundary matches the zone the schedule is evaluated in.
func parseOptionTime(value string, loc *time.Location) (t time.Time, isDateOnly bool, err error) {
	if parsed, e := time.ParseInLocation(dateOnlyLayout, value, loc); e == nil {
		return parsed, true, nil
	}
	var lastErr error
	for _, layout := range dateTimeLayouts {
		if parsed, e := time.Parse(layout, value); e == nil {
			return parsed, false, nil
		} else {
			lastErr = e
		}
	}
	return time.Time{}, false, lastErr
}

func atoiStrict(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
