package usda

import (
	"fmt"
	"strings"

	"github.com/nutrihub/backend/internal/domain"
)

// USDA nutrient IDs. Search responses report values per 100 g.
const (
	nutrientIDEnergy       = 1008 // kcal
	nutrientIDProtein      = 1003 // g
	nutrientIDCarbohydrate = 1005 // g
	nutrientIDTotalFat     = 1004 // g
	nutrientIDFiber        = 1079 // g
	nutrientIDSugar        = 2000 // g
	nutrientIDSodium       = 1093 // mg
	nutrientIDSaturatedFat = 1258 // g
	nutrientIDCholesterol  = 1253 // mg
	nutrientIDCalcium      = 1087 // mg
	nutrientIDIron         = 1089 // mg
	nutrientIDVitaminC     = 1162 // mg
)

// normalize converts a USDA food into the canonical record. USDA is a
// government database, so results are marked verified.
func normalize(f *food) domain.NormalizedFood {
	servings := []domain.ServingSize{{Name: "100g", Grams: 100}}
	if f.ServingSize > 0 && strings.EqualFold(f.ServingSizeUnit, "g") {
		servings = append(servings, domain.ServingSize{
			Name:  fmt.Sprintf("1 serving (%.0fg)", f.ServingSize),
			Grams: f.ServingSize,
		})
	}

	brand := f.BrandName
	if brand == "" {
		brand = f.BrandOwner
	}

	externalID := fmt.Sprintf("%d", f.FdcID)

	return domain.NormalizedFood{
		ID:           fmt.Sprintf("%s_%s", Name, externalID),
		Name:         f.Description,
		Brand:        brand,
		Category:     f.FoodCategory,
		Barcode:      f.GtinUpc,
		ServingSizes: servings,
		Nutrients:    extractNutrients(f.Nutrients),
		Source:       Name,
		ExternalID:   externalID,
		Verified:     true,
	}
}

// extractNutrients pulls the tracked nutrients out of the USDA nutrient
// list. Missing mandatory nutrients stay 0, missing optional ones stay nil.
func extractNutrients(list []nutrient) domain.Nutrients {
	n := domain.Nutrients{}

	for _, nu := range list {
		v := nu.Value
		switch nu.NutrientID {
		case nutrientIDEnergy:
			n.Calories = v
		case nutrientIDProtein:
			n.Protein = v
		case nutrientIDCarbohydrate:
			n.Carbs = v
		case nutrientIDTotalFat:
			n.Fat = v
		case nutrientIDFiber:
			n.Fiber = ptr(v)
		case nutrientIDSugar:
			n.Sugar = ptr(v)
		case nutrientIDSodium:
			n.Sodium = ptr(v)
		case nutrientIDSaturatedFat:
			n.SaturatedFat = ptr(v)
		case nutrientIDCholesterol:
			n.Cholesterol = ptr(v)
		case nutrientIDCalcium:
			n.Calcium = ptr(v)
		case nutrientIDIron:
			n.Iron = ptr(v)
		case nutrientIDVitaminC:
			n.VitaminC = ptr(v)
		}
	}

	return n
}

func ptr(v float64) *float64 { return &v }
