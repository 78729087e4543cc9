package chronex

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders e in canonical comma-separated form (§4.9 canonicalization:
// no symbolic names, numeric values only).
func (e CronFieldEntry) String() string {
	switch e.kind {
	case entryWildcard:
		return "*"
	case entryWildcardStep:
		return fmt.Sprintf("*/%d", e.step)
	case entryValue:
		return strconv.Itoa(e.v)
	case entryRange:
		return fmt.Sprintf("%d-%d", e.lo, e.hi)
	case entryRangeStep:
		return fmt.Sprintf("%d-%d/%d", e.lo, e.hi, e.step)
	}
	return ""
}

func (f CronField) String() string {
	parts := make([]string, len(f.entries))
	for i, e := range f.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

func (s SpecialEntry) String() string {
	switch s.kind {
	case specialLastDay:
		return "L"
	case specialLastWeekday:
		return "LW"
	case specialLastDayOffset:
		return fmt.Sprintf("L-%d", s.n)
	case specialNearestWeekday:
		return fmt.Sprintf("%dW", s.day)
	case specialLastDowOfMonth:
		return fmt.Sprintf("%dL", s.dow)
	case specialNthDowOfMonth:
		return fmt.Sprintf("%d#%d", s.dow, s.n)
	}
	return ""
}

// String renders the schedule's fields in canonical field order, including
// the seconds field only when the expression originally carried one.
func (c CronSchedule) String() string {
	var fields []string
	if c.hasSeconds {
		fields = append(fields, c.second.String())
	}
	fields = append(fields, c.minute.String(), c.hour.String())
	if c.domSpecial != nil {
		fields = append(fields, c.domSpecial.String())
	} else {
		fields = append(fields, c.dom.String())
	}
	fields = append(fields, c.month.String())
	if c.dowSpecial != nil {
		fields = append(fields, c.dowSpecial.String())
	} else {
		fields = append(fields, c.dow.String())
	}
	return strings.Join(fields, " ")
}

func (s IntervalSchedule) String() string {
	if s.HasRange() {
		return fmt.Sprintf("@every %s-%s", FormatDuration(s.Min), FormatDuration(s.Max))
	}
	return fmt.Sprintf("@every %s", FormatDuration(s.Min))
}

func (s OnceSchedule) String() string {
	if s.WasRelative {
		return fmt.Sprintf("@once +%s", FormatDuration(s.RelativeDuration))
	}
	return fmt.Sprintf("@once %s", s.FireAt.UTC().Format("2006-01-02T15:04:05Z"))
}

// String renders the `{key:value,...}` suffix with keys sorted
// alphabetically, the canonical form used by round-trip tests (§4.9).
func (o Options) String() string {
	var pairs []string
	if o.From != nil {
		pairs = append(pairs, "from:"+o.From.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if o.Jitter != nil {
		pairs = append(pairs, "jitter:"+FormatDuration(*o.Jitter))
	}
	if o.Max != nil {
		pairs = append(pairs, fmt.Sprintf("max:%d", *o.Max))
	}
	if o.Stagger != nil {
		pairs = append(pairs, "stagger:"+FormatDuration(*o.Stagger))
	}
	if len(o.Tags) > 0 {
		pairs = append(pairs, "tag:"+strings.Join(o.Tags, "+"))
	}
	if o.Until != nil {
		if o.UntilDateOnly {
			pairs = append(pairs, "until:"+o.Until.Format(dateOnlyLayout))
		} else {
			pairs = append(pairs, "until:"+o.Until.UTC().Format("2006-01-02T15:04:05Z"))
		}
	}
	if o.Window != nil {
		pairs = append(pairs, "window:"+FormatDuration(*o.Window))
	}
	if len(pairs) == 0 {
		return ""
	}
	return "{" + strings.Join(pairs, ",") + "}"
}
