package foodtype

import (
	"strings"
)

type FoodType struct {
	Name string
}

func (f FoodType) Code() string {
	return f.Name
}

func (f FoodType) Label() string {
	parts := strings.Split(f.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Veg    FoodType
	NonVeg FoodType
	Egg    FoodType
	Vegan  FoodType
	Other  FoodType
}

var FoodTypes = Enum{
	Veg:    FoodType{Name: "veg"},
	NonVeg: FoodType{Name: "non-veg"},
	Egg:    FoodType{Name: "egg"},
	Vegan:  FoodType{Name: "vegan"},
	Other:  FoodType{Name: "other"},
}

var All = []FoodType{
	FoodTypes.Veg,
	FoodTypes.NonVeg,
	FoodTypes.Egg,
	FoodTypes.Vegan,
	FoodTypes.Other,
}

// ByName returns the food type for a given name, or nil if not found
func ByName(name string) *FoodType {
	for _, f := range All {
		if f.Name == name {
			return &f
		}
	}
	return nil
}

// Parse maps the spellings the menu API uses ("Veg", "nonveg", "non_veg")
// to a known food type. Anything unrecognised is Other.
func Parse(raw string) FoodType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "nonveg", "non-vegetarian":
		key = FoodTypes.NonVeg.Name
	case "vegetarian":
		key = FoodTypes.Veg.Name
	}
	if f := ByName(key); f != nil {
		return *f
	}
	return FoodTypes.Other
}
