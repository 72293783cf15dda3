package feature

import "strings"

// speciesFamilies 把常见品类别名归到同一家族，用于相关品类匹配。
var speciesFamilies = map[string][]string{
	"cattle":  {"cattle", "beef", "dairy", "cow", "cows", "bull", "bulls", "heifer", "heifers", "calf", "calves", "steer", "ox", "oxen"},
	"goat":    {"goat", "goats", "doe", "buck", "kid", "kids", "billy", "nanny"},
	"sheep":   {"sheep", "lamb", "lambs", "ewe", "ewes", "ram", "rams", "mutton"},
	"pig":     {"pig", "pigs", "swine", "hog", "hogs", "sow", "sows", "boar", "piglet", "piglets", "pork"},
	"poultry": {"poultry", "chicken", "chickens", "hen", "hens", "broiler", "broilers", "layer", "layers", "rooster", "duck", "ducks", "turkey", "turkeys", "guinea fowl"},
	"horse":   {"horse", "horses", "mare", "mares", "stallion", "foal", "foals", "pony", "donkey", "donkeys", "mule"},
}

var speciesIndex = buildSpeciesIndex()

func buildSpeciesIndex() map[string]string {
	idx := make(map[string]string)
	for family, members := range speciesFamilies {
		for _, m := range members {
			idx[m] = family
		}
	}
	return idx
}

func normalizeSpecies(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SpeciesFamily 返回品类所属家族，未知品类返回空串。
func SpeciesFamily(species string) string {
	return speciesIndex[normalizeSpecies(species)]
}

// RelatedSpecies 判断两个品类是否同属一个家族（不含完全相同）。
func RelatedSpecies(a, b string) bool {
	fa := SpeciesFamily(a)
	return fa != "" && fa == SpeciesFamily(b)
}

// FamilyMembers 返回与 species 同家族的全部品类名（含自身），未知品类只返回自身。
func FamilyMembers(species string) []string {
	s := normalizeSpecies(species)
	members, ok := speciesFamilies[SpeciesFamily(s)]
	if !ok {
		return []string{s}
	}
	return append([]string(nil), members...)
}
