package chronex

import (
	"strings"
	"time"
)

// exprKind tags which concrete schedule an Expression holds after parsing;
// alias bodies are expanded to exprKindCron during Parse (§4.7).
type exprKind int

const (
	exprKindCron exprKind = iota
	exprKindInterval
	exprKindOnce
)

// Expression is a fully parsed schedule: body, timezone, and options
// (§3 Expression, §4.9).
type Expression struct {
	raw      string
	timezone string
	location *time.Location
	kind     exprKind
	cron     CronSchedule
	interval IntervalSchedule
	once     OnceSchedule
	options  Options
}

// Raw returns the original, unparsed expression text.
func (e *Expression) Raw() string { return e.raw }

// Options returns the parsed `{...}` option set.
func (e *Expression) Options() Options { return e.options }

// Parse parses expr in strict mode: the first rule violation encountered
// (error-class; warnings are ignored) is returned as a *ParseError (§4.11).
func Parse(expr string) (*Expression, error) {
	tok, d := tokenize(expr)
	if d != nil {
		return nil, parseErr(expr, *d)
	}

	loc, d := loadLocation(tok.timezone)
	if d != nil {
		return nil, parseErr(expr, *d)
	}

	opts, diags := parseOptions(tok.optionsRaw, loc)
	for _, dd := range diags {
		if !isWarningCode(dd.Code) {
			return nil, parseErr(expr, dd)
		}
	}

	e := &Expression{raw: expr, timezone: tok.timezone, location: loc, options: opts}

	switch tok.bodyKind {
	case bodyAlias:
		cronBody, ok := expandAlias(tok.body)
		if !ok {
			d := diag(CodeStructural, "", "unrecognized alias", tok.body, -1)
			return nil, parseErr(expr, d)
		}
		sched, d := parseCronBody(cronBody)
		if d != nil {
			return nil, parseErr(expr, *d)
		}
		e.kind = exprKindCron
		e.cron = sched

	case bodyCron:
		sched, d := parseCronBody(tok.body)
		if d != nil {
			return nil, parseErr(expr, *d)
		}
		e.kind = exprKindCron
		e.cron = sched

	case bodyInterval:
		iv, d := parseIntervalBody(tok.body)
		if d != nil {
			return nil, parseErr(expr, *d)
		}
		e.kind = exprKindInterval
		e.interval = iv

	case bodyOnce:
		once, d := parseOnceBody(tok.body, loc)
		if d != nil {
			return nil, parseErr(expr, *d)
		}
		e.kind = exprKindOnce
		e.once = once
	}

	return e, nil
}

// parseCronBody parses a 5- or 6-field cron body into a CronSchedule,
// recognizing DOM/DOW special syntax before falling back to generic field
// parsing (§4.2, §4.3).
func parseCronBody(body string) (CronSchedule, *Diagnostic) {
	fields, ok := splitCronFields(body)
	if !ok {
		d := diag(CodeStructural, "", "cron body must have 5 or 6 whitespace-separated fields", body, -1)
		return CronSchedule{}, &d
	}

	hasSeconds := len(fields) == 6
	idx := 0
	sched := CronSchedule{hasSeconds: hasSeconds}

	if hasSeconds {
		f, d := parseCronField(fieldSecond, fields[idx])
		if d != nil {
			return CronSchedule{}, d
		}
		sched.second = f
		idx++
	} else {
		sched.second = CronField{kind: fieldSecond, entries: []CronFieldEntry{{kind: entryValue, v: 0}}}
	}

	minuteField, d := parseCronField(fieldMinute, fields[idx])
	if d != nil {
		return CronSchedule{}, d
	}
	sched.minute = minuteField
	idx++

	hourField, d := parseCronField(fieldHour, fields[idx])
	if d != nil {
		return CronSchedule{}, d
	}
	sched.hour = hourField
	idx++

	domRaw := fields[idx]
	idx++

	monthField, d := parseCronField(fieldMonth, fields[idx])
	if d != nil {
		return CronSchedule{}, d
	}
	sched.month = monthField
	idx++

	dowRaw := fields[idx]

	domSpecial, domIsSpecial, d := parseDOMSpecial(domRaw)
	if d != nil {
		return CronSchedule{}, d
	}
	if domIsSpecial {
		sched.domSpecial = &domSpecial
	} else {
		f, d := parseCronField(fieldDOM, domRaw)
		if d != nil {
			return CronSchedule{}, d
		}
		sched.dom = f
	}

	dowSpecial, dowIsSpecial, d := parseDOWSpecial(dowRaw)
	if d != nil {
		return CronSchedule{}, d
	}
	if dowIsSpecial {
		sched.dowSpecial = &dowSpecial
	} else {
		f, d := parseCronField(fieldDOW, dowRaw)
		if d != nil {
			return CronSchedule{}, d
		}
		sched.dow = f
	}

	return sched, nil
}

// parseCronBodyCollect parses a cron body the same way parseCronBody does,
// but never stops at the first bad field: every field is parsed
// independently and its diagnostic, if any, is appended to the result, the
// same collect-don't-short-circuit treatment parseOptions already gives
// option keys (§4.11). Used only by Validate; Parse keeps the fail-fast
// parseCronBody since it only ever needs the first error.
func parseCronBodyCollect(body string) (CronSchedule, []Diagnostic) {
	fields, ok := splitCronFields(body)
	if !ok {
		return CronSchedule{}, []Diagnostic{diag(CodeStructural, "", "cron body must have 5 or 6 whitespace-separated fields", body, -1)}
	}

	var diags []Diagnostic
	hasSeconds := len(fields) == 6
	idx := 0
	sched := CronSchedule{hasSeconds: hasSeconds}

	if hasSeconds {
		f, d := parseCronField(fieldSecond, fields[idx])
		if d != nil {
			diags = append(diags, *d)
		}
		sched.second = f
		idx++
	} else {
		sched.second = CronField{kind: fieldSecond, entries: []CronFieldEntry{{kind: entryValue, v: 0}}}
	}

	minuteField, d := parseCronField(fieldMinute, fields[idx])
	if d != nil {
		diags = append(diags, *d)
	}
	sched.minute = minuteField
	idx++

	hourField, d := parseCronField(fieldHour, fields[idx])
	if d != nil {
		diags = append(diags, *d)
	}
	sched.hour = hourField
	idx++

	domRaw := fields[idx]
	idx++

	monthField, d := parseCronField(fieldMonth, fields[idx])
	if d != nil {
		diags = append(diags, *d)
	}
	sched.month = monthField
	idx++

	dowRaw := fields[idx]

	domSpecial, domIsSpecial, d := parseDOMSpecial(domRaw)
	if d != nil {
		diags = append(diags, *d)
	} else if domIsSpecial {
		sched.domSpecial = &domSpecial
	} else {
		f, d := parseCronField(fieldDOM, domRaw)
		if d != nil {
			diags = append(diags, *d)
		}
		sched.dom = f
	}

	dowSpecial, dowIsSpecial, d := parseDOWSpecial(dowRaw)
	if d != nil {
		diags = append(diags, *d)
	} else if dowIsSpecial {
		sched.dowSpecial = &dowSpecial
	} else {
		f, d := parseCronField(fieldDOW, dowRaw)
		if d != nil {
			diags = append(diags, *d)
		}
		sched.dow = f
	}

	return sched, diags
}

// parseIntervalBody parses "@every <dur>" or "@every <dur>-<dur>" (§4.6).
func parseIntervalBody(body string) (IntervalSchedule, *Diagnostic) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body), "@every"))
	if trimmed == "" {
		d := diag(CodeEveryFormat, "", "@every requires a duration", body, -1)
		return IntervalSchedule{}, &d
	}

	lo, hi, isRange := strings.Cut(trimmed, "-")
	min, err := ParseDuration(strings.TrimSpace(lo))
	if err != nil || min <= 0 {
		d := diag(CodeEveryFormat, "", "malformed @every duration", body, -1)
		return IntervalSchedule{}, &d
	}
	if !isRange {
		return IntervalSchedule{Min: min}, nil
	}

	max, err := ParseDuration(strings.TrimSpace(hi))
	if err != nil || max <= 0 {
		d := diag(CodeEveryFormat, "", "malformed @every range upper bound", body, -1)
		return IntervalSchedule{}, &d
	}
	if min >= max {
		d := diag(CodeEveryRange, "", "@every range lower bound must be less than upper bound", body, -1)
		return IntervalSchedule{}, &d
	}
	return IntervalSchedule{Min: min, Max: max}, nil
}

// parseOnceBody parses "@once <iso8601>" or "@once +<dur>" (§4.6). The
// relative form is resolved against wall-clock time at parse time.
func parseOnceBody(body string, loc *time.Location) (OnceSchedule, *Diagnostic) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body), "@once"))
	if trimmed == "" {
		d := diag(CodeOnceFormat, "", "@once requires a timestamp or +duration", body, -1)
		return OnceSchedule{}, &d
	}

	if strings.HasPrefix(trimmed, "+") {
		d, err := ParseDuration(trimmed[1:])
		if err != nil {
			diagv := diag(CodeOnceFormat, "", "malformed @once relative duration", body, -1)
			return OnceSchedule{}, &diagv
		}
		if d <= 0 {
			diagv := diag(CodeOnceRelDur, "", "@once relative duration must be positive", body, -1)
			return OnceSchedule{}, &diagv
		}
		return OnceSchedule{FireAt: timeNow().Add(d), WasRelative: true, RelativeDuration: d}, nil
	}

	t, _, err := parseOptionTime(trimmed, loc)
	if err != nil {
		d := diag(CodeOnceFormat, "", "malformed @once timestamp", body, -1)
		return OnceSchedule{}, &d
	}
	return OnceSchedule{FireAt: t}, nil
}

// timeNow is a seam over time.Now so tests can stub "the instant Parse ran"
// without the package depending on an injected clock for pure parsing.
var timeNow = time.Now

const maxFromSkipIterations = 8

// NextOccurrence returns the earliest occurrence of e strictly after from,
// honoring the from/until option bounds, or ok=false if no such occurrence
// exists (§4.9).
func (e *Expression) NextOccurrence(from time.Time) (time.Time, bool) {
	cur := from
	for i := 0; i < maxFromSkipIterations; i++ {
		next, ok := e.rawNextOccurrence(cur)
		if !ok {
			return time.Time{}, false
		}
		if e.options.From != nil && next.Before(*e.options.From) {
			if e.kind == exprKindInterval {
				cur = *e.options.From
			} else {
				cur = e.options.From.Add(-time.Nanosecond)
			}
			continue
		}
		if e.options.Until != nil && next.After(*e.options.Until) {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

func (e *Expression) rawNextOccurrence(from time.Time) (time.Time, bool) {
	switch e.kind {
	case exprKindCron:
		return e.nextCronOccurrence(from)
	case exprKindInterval:
		return e.interval.NextAfter(from), true
	case exprKindOnce:
		return e.once.NextAfter(from)
	}
	return time.Time{}, false
}

// nextCronOccurrence converts from into the expression's timezone, finds the
// next naive match, and reattaches the zone exactly once (§4.10).
func (e *Expression) nextCronOccurrence(from time.Time) (time.Time, bool) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	local := from.In(loc)
	naiveFrom := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)

	for i := 0; i < maxFromSkipIterations; i++ {
		naiveNext, ok := e.cron.NextAfter(naiveFrom)
		if !ok {
			return time.Time{}, false
		}
		absolute := attachZone(naiveNext, loc)
		if absolute.After(from) {
			return absolute, true
		}
		// A fall-back fold resolved to an instant not after from; keep
		// searching forward from this naive point.
		naiveFrom = naiveNext
	}
	return time.Time{}, false
}

// Enumerate returns up to count occurrences strictly after from, capped by
// the expression's max option (default 1000) (§4.9).
func (e *Expression) Enumerate(from time.Time, count int) []time.Time {
	limit := count
	effectiveMax := 1000
	if e.options.Max != nil {
		effectiveMax = *e.options.Max
	}
	if effectiveMax < limit {
		limit = effectiveMax
	}
	if limit <= 0 {
		return nil
	}

	results := make([]time.Time, 0, limit)
	cur := from
	for len(results) < limit {
		next, ok := e.NextOccurrence(cur)
		if !ok {
			break
		}
		results = append(results, next)
		cur = next
	}
	return results
}

// String renders e in canonical form: TZ= prefix (if any), body, and a
// {key:value,...} options suffix with keys sorted alphabetically (§4.9).
func (e *Expression) String() string {
	var b strings.Builder
	if e.timezone != "" {
		b.WriteString("TZ=")
		b.WriteString(e.timezone)
		b.WriteString(" ")
	}
	switch e.kind {
	case exprKindCron:
		b.WriteString(e.cron.String())
	case exprKindInterval:
		b.WriteString(e.interval.String())
	case exprKindOnce:
		b.WriteString(e.once.String())
	}
	if opts := e.options.String(); opts != "" {
		b.WriteString(" ")
		b.WriteString(opts)
	}
	return b.String()
}
