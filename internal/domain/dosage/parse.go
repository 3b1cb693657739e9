package dosage

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Free-text parsing for dose and regimen strings. The patterns and the
// frequency table are versioned data: extending the accepted vocabulary
// means adding rows here.

var (
	rangePattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[-–]\s*(\d+(?:\.\d+)?)`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	timesPerDay   = regexp.MustCompile(`(\d+)\s*times\s*(?:per|a)\s*day`)
	durationValue = regexp.MustCompile(`(\d+)\s*(day|week|month)`)
)

// frequencyTable maps regimen codes to doses per day. First matching row
// wins; codes are matched as substrings of the lowercased regimen.
var frequencyTable = []struct {
	codes  []string
	perDay int
}{
	{[]string{"q6h", "qid"}, 4},
	{[]string{"q8h", "tid"}, 3},
	{[]string{"q12h", "bid"}, 2},
	{[]string{"q24h", "qd", "daily"}, 1},
}

// defaultDosesPerDay applies when a regimen matches nothing in the table.
const defaultDosesPerDay = 3

// dosesPerDay infers administration count from a regimen code.
func dosesPerDay(regimen string) int {
	reg := strings.ToLower(regimen)
	for _, row := range frequencyTable {
		for _, code := range row.codes {
			if strings.Contains(reg, code) {
				return row.perDay
			}
		}
	}
	if m := timesPerDay.FindStringSubmatch(reg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return defaultDosesPerDay
}

// splitRegimen separates a "<frequency> × <duration>" regimen into its
// parts. Both the multiplication sign and a bare "x" separator occur in
// source data. Duration defaults when absent.
func splitRegimen(regimen string) (frequency, duration string) {
	for _, sep := range []string{"×", " x "} {
		if idx := strings.Index(regimen, sep); idx >= 0 {
			frequency = strings.TrimSpace(regimen[:idx])
			duration = strings.TrimSpace(regimen[idx+len(sep):])
			if duration != "" {
				return frequency, duration
			}
			break
		}
	}
	return strings.TrimSpace(regimen), strconv.Itoa(DefaultDurationDays) + " days"
}

// parseRange extracts a min-max numeric range. ok is false when the string
// holds no range.
func parseRange(s string) (min, max float64, ok bool) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	min, err1 := strconv.ParseFloat(m[1], 64)
	max, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return min, max, true
}

// firstNumber extracts the first numeric token from a free-text string.
func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// durationDays converts a duration string to days, defaulting when it cannot
// be parsed.
func durationDays(duration string) int {
	m := durationValue.FindStringSubmatch(strings.ToLower(duration))
	if m == nil {
		return DefaultDurationDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultDurationDays
	}
	switch m[2] {
	case "week":
		return n * 7
	case "month":
		return n * 30
	default:
		return n
	}
}

// creatinineClearance estimates CrCl in mL/min via Cockcroft-Gault, scaled
// by 0.85 for female patients and rounded to one decimal.
func creatinineClearance(age int, weightKg, creatinine float64, female bool) float64 {
	crcl := (float64(140-age) * weightKg) / (72 * creatinine)
	if female {
		crcl *= 0.85
	}
	return math.Round(crcl*10) / 10
}

// matchClearance evaluates a clearance predicate string ("CrCl >50",
// "CrCl 10-30 mL/min", "<10") against a computed CrCl. Range bounds are
// inclusive. Unparseable predicates never match.
func matchClearance(condition string, crcl float64) bool {
	if min, max, ok := parseRange(condition); ok {
		return crcl >= min && crcl <= max
	}
	if idx := strings.IndexAny(condition, "<>"); idx >= 0 {
		bound, ok := firstNumber(condition[idx+1:])
		if !ok {
			return false
		}
		if condition[idx] == '>' {
			return crcl > bound
		}
		return crcl < bound
	}
	return false
}

// formatAmount renders a computed per-dose amount without trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
