package openfoodfacts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutrihub/backend/internal/domain"
)

// normalize converts an Open Food Facts product to the canonical
// record. Nutriments are already on a 100 g basis; mineral and vitamin
// values arrive in grams and are converted to milligrams.
func normalize(p *product) domain.NormalizedFood {
	servings := []domain.ServingSize{{Name: "100g", Grams: 100}}
	if grams := asFloat(p.ServingQty); grams > 0 {
		name := strings.TrimSpace(p.ServingSize)
		if name == "" {
			name = fmt.Sprintf("1 serving (%.0fg)", grams)
		}
		servings = append(servings, domain.ServingSize{Name: name, Grams: grams})
	}

	return domain.NormalizedFood{
		ID:           fmt.Sprintf("%s_%s", Name, p.Code),
		Name:         p.ProductName,
		Brand:        firstCSV(p.Brands),
		Category:     firstCSV(p.Categories),
		Barcode:      p.Code,
		ServingSizes: servings,
		Nutrients:    extractNutriments(p.Nutriments),
		Source:       Name,
		ExternalID:   p.Code,
		Verified:     false, // crowd-sourced data
		ImageURL:     p.ImageURL,
	}
}

func extractNutriments(m map[string]any) domain.Nutrients {
	n := domain.Nutrients{
		Calories: nutriment(m, "energy-kcal_100g"),
		Protein:  nutriment(m, "proteins_100g"),
		Carbs:    nutriment(m, "carbohydrates_100g"),
		Fat:      nutriment(m, "fat_100g"),
	}

	n.Fiber = optional(m, "fiber_100g", 1)
	n.Sugar = optional(m, "sugars_100g", 1)
	n.SaturatedFat = optional(m, "saturated-fat_100g", 1)
	// OFF reports these in grams; the canonical unit is mg.
	n.Sodium = optional(m, "sodium_100g", 1000)
	n.Cholesterol = optional(m, "cholesterol_100g", 1000)
	n.Calcium = optional(m, "calcium_100g", 1000)
	n.Iron = optional(m, "iron_100g", 1000)
	n.VitaminC = optional(m, "vitamin-c_100g", 1000)

	return n
}

func nutriment(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	return asFloat(m[key])
}

func optional(m map[string]any, key string, scale float64) *float64 {
	if m == nil {
		return nil
	}
	raw, ok := m[key]
	if !ok {
		return nil
	}
	v := asFloat(raw) * scale
	return &v
}

// asFloat handles OFF's habit of returning numbers as either JSON
// numbers or strings.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func firstCSV(s string) string {
	if idx := strings.Index(s, ","); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
