package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Rule precedence lives in these ordered tables rather than in control
// flow, so each grammar can be tested on its own and extended without
// touching the pipeline.

type dateRule struct {
	name  string
	re    *regexp.Regexp
	parse func(match []string) (core.Date, bool)
}

// amountToken: optional sign, optional currency symbol, digits with
// optional thousands commas, a literal decimal point, exactly two decimal
// digits, optional trailing currency code. Internal gaps are allowed only
// after an explicit sign or symbol, and never across a line break, so the
// match starts on the token itself rather than on preceding whitespace.
const amountToken = `(?:[+-][ \t]*)?(?:[$€£][ \t]*)?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}(?:[ \t]?(?:USD|EUR|GBP))?`

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{2,4})\b`)

	// The separator stays within the line: a keyword never claims an
	// amount from the line below it.
	keywordAmountRe = regexp.MustCompile(`(?i)\b(total|subtotal|amount|paid|refund|credit)\b[: \t]*(` + amountToken + `)`)
	bareAmountRe    = regexp.MustCompile(`(?i)` + amountToken)

	negCurrencyRe = regexp.MustCompile(`-\s*[$€£]`)
	digitsOnlyRe  = regexp.MustCompile(`^\d+$`)

	merchantLabelRe = regexp.MustCompile(`(?i)\b(?:merchant|store|vendor|company)\s*:\s*([^\n]+)`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var dateRules = []dateRule{
	{
		name: "numeric",
		re:   numericDateRe,
		parse: func(m []string) (core.Date, bool) {
			first, _ := strconv.Atoi(m[1])
			second, _ := strconv.Atoi(m[2])
			year := expandYear(m[3])
			// Month/day/year first, day/month/year when the first field
			// cannot be a month.
			if d, ok := calendarDate(year, first, second); ok {
				return d, true
			}
			return calendarDate(year, second, first)
		},
	},
	{
		name: "month-name",
		re:   monthDateRe,
		parse: func(m []string) (core.Date, bool) {
			day, _ := strconv.Atoi(m[1])
			month := monthIndex[strings.ToLower(m[2])]
			return calendarDate(expandYear(m[3]), month, day)
		},
	},
}

type amountRule struct {
	name  string
	re    *regexp.Regexp
	group int // submatch index holding the numeric token
}

// The keyword rule outranks the bare rule: an amount announced by Total,
// Subtotal, Amount, Paid, Refund or Credit wins over any other amount in
// the same candidate.
var amountRules = []amountRule{
	{name: "keyword", re: keywordAmountRe, group: 2},
	{name: "bare", re: bareAmountRe, group: 0},
}

// findDate locates the leftmost date-grammar token in text. The returned
// Date is zero when the token fails calendar validation; matched reports
// whether any grammar token was present at all, which is what structure
// classification keys on.
func findDate(text string) (date core.Date, span []int, matched bool) {
	bestStart := -1
	var bestRule *dateRule
	var bestIdx []int
	for i := range dateRules {
		idx := dateRules[i].re.FindStringSubmatchIndex(text)
		if idx == nil {
			continue
		}
		if bestStart == -1 || idx[0] < bestStart {
			bestStart = idx[0]
			bestRule = &dateRules[i]
			bestIdx = idx
		}
	}
	if bestRule == nil {
		return core.Date{}, nil, false
	}

	groups := make([]string, 0, len(bestIdx)/2)
	for i := 0; i < len(bestIdx); i += 2 {
		if bestIdx[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[bestIdx[i]:bestIdx[i+1]])
	}
	d, ok := bestRule.parse(groups)
	if !ok {
		return core.Date{}, []int{bestIdx[0], bestIdx[1]}, true
	}
	return d, []int{bestIdx[0], bestIdx[1]}, true
}

// findAmount locates an amount token in text, honoring rule precedence.
// The returned span covers the full rule match (keyword prefix included)
// so that description extraction removes it wholesale; tok is the numeric
// token alone.
func findAmount(text string) (tok string, span []int, ok bool) {
	for _, rule := range amountRules {
		for _, idx := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			end := idx[1]
			// Reject matches that truncate a longer digit run, e.g. the
			// "123.45" inside "123.456".
			if end < len(text) && text[end] >= '0' && text[end] <= '9' {
				continue
			}
			g := 2 * rule.group
			return text[idx[g]:idx[g+1]], []int{idx[0], idx[1]}, true
		}
	}
	return "", nil, false
}

// amountCents parses the numeric value of a matched token. Sign, currency
// symbols, currency codes and thousands separators are stripped; only the
// absolute value survives.
func amountCents(tok string) (int64, bool) {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, tok)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, false
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, false
	}
	return cents.IntPart(), true
}

// expandYear maps 2-digit years onto 1969-2068, the time.Parse convention.
func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) > 2 {
		return y
	}
	if y >= 69 {
		return 1900 + y
	}
	return 2000 + y
}

// calendarDate validates the components as a real calendar date. Day 32 or
// month 13 never produce a date.
func calendarDate(year, month, day int) (core.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return core.Date{}, false
	}
	d := core.NewDate(year, month, day)
	if d.Month() != month || d.Day() != day {
		// time.Date normalized an out-of-range day (e.g. Feb 30).
		return core.Date{}, false
	}
	return d, true
}

type candidate struct {
	line  int    // 1-based source line, 0 for whole-document candidates
	raw   string // candidate text with original casing
	lower string // lowercase shadow for keyword classifiers

	date     core.Date
	dateSpan []int

	hasAmount   bool
	amountCents int64
	amountTok   string
	amountSpan  []int

	fallbackDesc string // document-level default, single candidates only
}

func (c candidate) lowerText() string { return c.lower }

// description derives the residual text: the candidate minus the matched
// date and amount substrings, whitespace collapsed. The two spans may
// overlap when one token's characters satisfy both grammars, so the
// residual is rebuilt from the text outside their union rather than by
// cutting the spans out one after the other. Unusable residuals get the
// tabular placeholder or the single-document fallback.
func (c candidate) description(structure Structure) string {
	spans := make([][]int, 0, 2)
	if c.dateSpan != nil {
		spans = append(spans, c.dateSpan)
	}
	if c.amountSpan != nil {
		spans = append(spans, c.amountSpan)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		start, end := s[0], s[1]
		if start > pos {
			b.WriteString(c.raw[pos:start])
		}
		b.WriteByte(' ')
		if end > pos {
			pos = end
		}
	}
	b.WriteString(c.raw[pos:])
	res := collapseSpaces(b.String())

	if usableDescription(res) {
		return res
	}
	if structure == StructureTabular {
		return "Unspecified Transaction"
	}
	return c.fallbackDesc
}

// usableDescription rejects residuals that are empty, purely numeric or
// shorter than 3 characters.
func usableDescription(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return false
	}
	return !digitsOnlyRe.MatchString(s)
}
