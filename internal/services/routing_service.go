package services

import (
	"strings"

	"resto_pos_backend/internal/models"
)

// barKeywords is the fixed fallback list: a category containing any of
// these substrings routes to the bar when no explicit mapping exists.
var barKeywords = []string{
	"drink", "beer", "wine", "alcohol", "cocktail",
	"juice", "water", "soda", "tea", "coffee",
}

// RouteCategory resolves an order line's category to a department. An
// explicit mapping entry always wins; otherwise the keyword fallback
// applies, defaulting to the kitchen. Pure function of its inputs, so
// re-deriving routing at query time is idempotent for a stable mapping.
func RouteCategory(mapping models.DepartmentMapping, category string) string {
	normalized := strings.ToLower(strings.TrimSpace(category))

	if dept, ok := mapping[normalized]; ok && dept != "" {
		return dept
	}

	for _, kw := range barKeywords {
		if strings.Contains(normalized, kw) {
			return models.DepartmentBar
		}
	}
	return models.DepartmentKitchen
}

// IsValidDepartment reports whether s names one of the two departments.
func IsValidDepartment(s string) bool {
	return s == models.DepartmentKitchen || s == models.DepartmentBar
}
