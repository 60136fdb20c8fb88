package transaction

import "strings"

// categoryMapping maps the aggregator's top-level category labels to
// the budget categories the rest of the app works with. Lookup is
// case-insensitive on the aggregator label.
var categoryMapping = map[string]string{
	"bank fees":            "Fees",
	"cash advance":         "Fees",
	"interest":             "Income",
	"payroll":              "Income",
	"transfer":             "Transfers",
	"payment":              "Payments",
	"food and drink":       "Food & Dining",
	"restaurants":          "Food & Dining",
	"groceries":            "Groceries",
	"shops":                "Shopping",
	"shopping":             "Shopping",
	"travel":               "Travel",
	"taxi":                 "Transportation",
	"transportation":       "Transportation",
	"gas stations":         "Transportation",
	"recreation":           "Entertainment",
	"entertainment":        "Entertainment",
	"gyms and fitness":     "Health & Fitness",
	"healthcare":           "Health & Fitness",
	"pharmacies":           "Health & Fitness",
	"rent":                 "Housing",
	"mortgage":             "Housing",
	"utilities":            "Utilities",
	"telecommunication":    "Utilities",
	"education":            "Education",
	"insurance":            "Insurance",
	"loans and mortgages":  "Loans",
	"tax":                  "Taxes",
	"charitable donations": "Gifts & Donations",
	"subscription":         "Subscriptions",
}

const defaultCategory = "Uncategorized"

// MapCategory picks the local budget category for a provider category
// path. The provider reports a hierarchy from broadest to most
// specific; the most specific label with a known mapping wins.
func MapCategory(path []string) string {
	for i := len(path) - 1; i >= 0; i-- {
		key := strings.ToLower(strings.TrimSpace(path[i]))
		if mapped, ok := categoryMapping[key]; ok {
			return mapped
		}
	}
	return defaultCategory
}
