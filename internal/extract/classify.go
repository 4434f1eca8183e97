package extract

import (
	"regexp"
	"strings"

	"fintrack/internal/core"
)

// Income keywords, checked in order against the candidate's lowercase text
// (the whole document in single mode). Any hit classifies the candidate as
// income; the keyword rule outranks the amount-sign heuristic when the two
// disagree.
var incomeKeywordRules = []*regexp.Regexp{
	regexp.MustCompile(`refund`),
	regexp.MustCompile(`credit`),
	regexp.MustCompile(`deposit`),
	regexp.MustCompile(`payment\s+received`),
	regexp.MustCompile(`\bcr\b`),
}

type categoryRule struct {
	keywords []string
	label    string
}

// Expense category rules, first match wins. Income is always "Income".
var categoryRules = []categoryRule{
	{keywords: []string{"grocery", "supermarket", "market"}, label: "Grocery"},
	{keywords: []string{"restaurant", "diner", "cafe"}, label: "Dining"},
	{keywords: []string{"fuel", "gas", "petrol"}, label: "Fuel"},
	{keywords: []string{"utility", "bill", "electricity"}, label: "Utilities"},
}

func classifyType(cand candidate) core.TransactionType {
	for _, re := range incomeKeywordRules {
		if re.MatchString(cand.lowerText()) {
			return core.Income
		}
	}
	// Explicit negative sign combined with a currency symbol (-$12.34)
	// marks a reversal paid back to the owner.
	if cand.hasAmount && negCurrencyRe.MatchString(cand.amountTok) {
		return core.Income
	}
	return core.Expense
}

func classifyCategory(txType core.TransactionType, lowerText string) string {
	if txType == core.Income {
		return core.CategoryIncome
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerText, kw) {
				return rule.label
			}
		}
	}
	return core.CategoryUncategorized
}
