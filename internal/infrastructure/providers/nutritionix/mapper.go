package nutritionix

import (
	"fmt"
	"strings"

	"github.com/nutrihub/backend/internal/domain"
)

// Nutritionix full_nutrients attribute IDs (USDA legacy numbering).
const (
	attrCalories     = 208 // kcal
	attrProtein      = 203 // g
	attrCarbs        = 205 // g
	attrFat          = 204 // g
	attrFiber        = 291 // g
	attrSugar        = 269 // g
	attrSodium       = 307 // mg
	attrSaturatedFat = 606 // g
	attrCholesterol  = 601 // mg
	attrCalcium      = 301 // mg
	attrIron         = 303 // mg
	attrVitaminC     = 401 // mg
)

func normalizeBranded(item *brandedItem) domain.NormalizedFood {
	f := domain.NormalizedFood{
		ID:           fmt.Sprintf("%s_%s", Name, item.NixItemID),
		Name:         item.FoodName,
		Brand:        item.BrandName,
		ServingSizes: servingSizes(item.ServingQty, item.ServingUnit, item.ServingWeightGrams),
		Nutrients:    rescaleNutrients(item.FullNutrients, item.ServingWeightGrams),
		Source:       Name,
		ExternalID:   item.NixItemID,
		Verified:     false,
		ImageURL:     item.Photo.Thumb,
	}
	return f
}

func normalizeCommon(item *commonItem) domain.NormalizedFood {
	// Common foods have no nix_item_id; the tag id is their stable key.
	externalID := item.TagID
	if externalID == "" {
		externalID = strings.ReplaceAll(strings.ToLower(item.FoodName), " ", "_")
	}

	return domain.NormalizedFood{
		ID:           fmt.Sprintf("%s_%s", Name, externalID),
		Name:         item.FoodName,
		ServingSizes: servingSizes(item.ServingQty, item.ServingUnit, item.ServingWeightGrams),
		Nutrients:    rescaleNutrients(item.FullNutrients, item.ServingWeightGrams),
		Source:       Name,
		ExternalID:   externalID,
		Verified:     false,
		ImageURL:     item.Photo.Thumb,
	}
}

func servingSizes(qty float64, unit string, grams float64) []domain.ServingSize {
	servings := []domain.ServingSize{{Name: "100g", Grams: 100}}
	if grams > 0 {
		name := fmt.Sprintf("%g %s (%.0fg)", qty, unit, grams)
		if qty <= 0 || unit == "" {
			name = fmt.Sprintf("1 serving (%.0fg)", grams)
		}
		servings = append(servings, domain.ServingSize{Name: name, Grams: grams})
	}
	return servings
}

// rescaleNutrients converts per-serving values to a 100 g basis:
// value_per_100g = value_per_serving / serving_grams * 100. Without a
// serving weight the values are passed through unchanged.
func rescaleNutrients(list []fullNutrient, servingGrams float64) domain.Nutrients {
	scale := 1.0
	if servingGrams > 0 {
		scale = 100.0 / servingGrams
	}

	n := domain.Nutrients{}
	for _, nu := range list {
		v := nu.Value * scale
		switch nu.AttrID {
		case attrCalories:
			n.Calories = v
		case attrProtein:
			n.Protein = v
		case attrCarbs:
			n.Carbs = v
		case attrFat:
			n.Fat = v
		case attrFiber:
			n.Fiber = ptr(v)
		case attrSugar:
			n.Sugar = ptr(v)
		case attrSodium:
			n.Sodium = ptr(v)
		case attrSaturatedFat:
			n.SaturatedFat = ptr(v)
		case attrCholesterol:
			n.Cholesterol = ptr(v)
		case attrCalcium:
			n.Calcium = ptr(v)
		case attrIron:
			n.Iron = ptr(v)
		case attrVitaminC:
			n.VitaminC = ptr(v)
		}
	}
	return n
}

func ptr(v float64) *float64 { return &v }
