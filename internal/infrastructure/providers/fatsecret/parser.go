package fatsecret

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nutrihub/backend/internal/domain"
)

// FatSecret's search endpoint delivers nutrients embedded in a display
// string, e.g.
//
//	"Per 100g - Calories: 52kcal | Fat: 0.17g | Carbs: 13.81g | Protein: 0.26g"
//	"Per 1 cup (240g) - Calories: 149kcal | Fat: 7.93g | ..."
//
// Extraction is best effort: unparseable values default to 0 and the
// serving basis defaults to 100 g. Keeping this inside the adapter
// means a future move to their structured food.get endpoint only
// touches this file.
var (
	basisGramsRegex   = regexp.MustCompile(`(?i)^Per\s+(?:([\d.]+)\s*g\b|[^-]*?\(([\d.]+)\s*g\))`)
	descNutrientRegex = regexp.MustCompile(`(?i)(Calories|Fat|Carbs|Protein):\s*([\d.]+)\s*(?:kcal|g)?`)
)

// normalize converts a FatSecret food into the canonical record,
// rescaling description nutrients to a 100 g basis.
func normalize(f *apiFood) domain.NormalizedFood {
	nutrients, basisGrams := parseDescription(f.FoodDescription)

	servings := []domain.ServingSize{{Name: "100g", Grams: 100}}
	if basisGrams > 0 && basisGrams != 100 {
		servings = append(servings, domain.ServingSize{
			Name:  fmt.Sprintf("1 serving (%.0fg)", basisGrams),
			Grams: basisGrams,
		})
	}

	return domain.NormalizedFood{
		ID:           fmt.Sprintf("%s_%s", Name, f.FoodID),
		Name:         f.FoodName,
		Brand:        f.BrandName,
		Category:     f.FoodType,
		ServingSizes: servings,
		Nutrients:    nutrients,
		Source:       Name,
		ExternalID:   f.FoodID,
		Verified:     false,
	}
}

// parseDescription extracts macros from the description string and
// rescales them to per-100g. Returns the declared serving basis in
// grams (0 when the description carried none).
func parseDescription(desc string) (domain.Nutrients, float64) {
	n := domain.Nutrients{}
	if desc == "" {
		return n, 0
	}

	basis := 0.0
	if m := basisGramsRegex.FindStringSubmatch(desc); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		basis, _ = strconv.ParseFloat(raw, 64)
	}

	scale := 1.0
	if basis > 0 {
		scale = 100.0 / basis
	}

	for _, m := range descNutrientRegex.FindAllStringSubmatch(desc, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		v *= scale
		switch strings.ToLower(m[1]) {
		case "calories":
			n.Calories = v
		case "fat":
			n.Fat = v
		case "carbs":
			n.Carbs = v
		case "protein":
			n.Protein = v
		}
	}

	return n, basis
}
