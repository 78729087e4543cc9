package chronex

import "time"

// ValidationResult is the outcome of Validate: every diagnostic found,
// split into errors and warnings, rather than stopping at the first one
// (§4.11, contrast with Parse's fail-fast ParseError).
type ValidationResult struct {
	Expr     string
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// IsValid reports whether expr would be accepted by Parse (no error-class
// diagnostics; warnings don't block acceptance).
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validate parses expr the same way Parse does but collects every rule
// violation instead of stopping at the first one, classifying each as an
// error or a warning (§4.11).
func Validate(expr string) ValidationResult {
	result := ValidationResult{Expr: expr}

	tok, d := tokenize(expr)
	if d != nil {
		result.Errors = append(result.Errors, *d)
		return result
	}

	loc, d := loadLocation(tok.timezone)
	if d != nil {
		result.Errors = append(result.Errors, *d)
		loc = time.UTC
	}

	opts, optDiags := parseOptions(tok.optionsRaw, loc)
	for _, dd := range optDiags {
		classify(&result, dd)
	}

	switch tok.bodyKind {
	case bodyAlias:
		cronBody, ok := expandAlias(tok.body)
		if !ok {
			result.Errors = append(result.Errors, diag(CodeStructural, "", "unrecognized alias", tok.body, -1))
			break
		}
		_, fieldDiags := parseCronBodyCollect(cronBody)
		for _, dd := range fieldDiags {
			classify(&result, dd)
		}

	case bodyCron:
		_, fieldDiags := parseCronBodyCollect(tok.body)
		for _, dd := range fieldDiags {
			classify(&result, dd)
		}

	case bodyInterval:
		iv, d := parseIntervalBody(tok.body)
		if d != nil {
			result.Errors = append(result.Errors, *d)
			break
		}
		checkIntervalAgainstOptions(&result, iv, opts)

	case bodyOnce:
		if _, d := parseOnceBody(tok.body, loc); d != nil {
			result.Errors = append(result.Errors, *d)
		}
	}

	return result
}

func classify(result *ValidationResult, d Diagnostic) {
	if isWarningCode(d.Code) {
		result.Warnings = append(result.Warnings, d)
		return
	}
	result.Errors = append(result.Errors, d)
}

// checkIntervalAgainstOptions computes the jitter/stagger-ratio warnings
// (E022/E025), which only apply to "@every" expressions and need the
// parsed interval bounds to evaluate (§4.8, §4.11).
func checkIntervalAgainstOptions(result *ValidationResult, iv IntervalSchedule, opts Options) {
	if opts.Jitter != nil && *opts.Jitter > iv.Min/2 {
		result.Warnings = append(result.Warnings, diag(CodeJitterRatio, "jitter", "jitter exceeds half the interval", "", -1))
	}
	if opts.Stagger != nil && *opts.Stagger > iv.Min {
		result.Warnings = append(result.Warnings, diag(CodeStaggerRatio, "stagger", "stagger exceeds the interval", "", -1))
	}
}
