package dailyrecord

import (
	"log"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// mealStateVocabulary is the only table mapping free text to MealState.
// Keys are case-folded. It holds the canonical names plus the casual terms
// found in older records.
var mealStateVocabulary = map[string]MealState{
	"not_served":     MealNotServed,
	"complete":       MealComplete,
	"partial":        MealPartial,
	"refused":        MealRefused,
	"no_data":        MealNoData,
	"not_applicable": MealNotApplicable,

	"good":   MealComplete,
	"well":   MealComplete,
	"fair":   MealPartial,
	"medium": MealPartial,
	"bad":    MealRefused,
	"none":   MealRefused,
}

func mealStateKey(raw string) string {
	s := strings.TrimSpace(norm.NFKC.String(raw))
	s = cases.Fold().String(s)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ParseMealState reports whether raw is a known spelling. Unknown input
// yields MealNotServed and false.
func ParseMealState(raw string) (MealState, bool) {
	if st, ok := mealStateVocabulary[mealStateKey(raw)]; ok {
		return st, true
	}
	return MealNotServed, false
}

// NormalizeMealState never fails; unknown values fall back to NOT_SERVED and
// are logged for data-quality follow-up.
func NormalizeMealState(raw string) MealState {
	st, ok := ParseMealState(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		log.Printf("[WARN] meal state fallback: %q -> %s", raw, st)
	}
	return st
}

func (m Meals) normalized() Meals {
	return Meals{
		FirstCourse:  NormalizeMealState(string(m.FirstCourse)),
		SecondCourse: NormalizeMealState(string(m.SecondCourse)),
		Dessert:      NormalizeMealState(string(m.Dessert)),
		Snack:        NormalizeMealState(string(m.Snack)),
	}
}

// Normalized returns the record with every meal slot in canonical form.
func (r DailyRecord) Normalized() DailyRecord {
	r.Meals = r.Meals.normalized()
	return r
}
