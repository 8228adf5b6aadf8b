package pickups

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// pickupCategories maps the service's standard and add-on item names to
// their category. Every other name is a rotating pickup.
var pickupCategories = map[string]Category{
	"Batteries":               CategoryStandard,
	"Beyond the Bin":          CategoryAddOn,
	"Fluorescent Light Tubes": CategoryAddOn,
	"Latex Paint":             CategoryAddOn,
	"Light Bulbs":             CategoryStandard,
	"Multi-Layer Plastic":     CategoryStandard,
	"Paint":                   CategoryAddOn,
	"Plastic Film":            CategoryStandard,
	"Styrofoam":               CategoryAddOn,
	"Threads":                 CategoryStandard,
}

// categorize returns the category for name and whether name is a known
// item. Unknown names are CategoryRotating.
func categorize(name string) (Category, bool) {
	if c, ok := pickupCategories[name]; ok {
		return c, true
	}
	return CategoryRotating, false
}

// newPickup builds a Pickup, deciding its category once from the title-cased
// name. Falling back to rotating is logged so that new standard or add-on
// items show up without breaking anything.
func newPickup(logger zerolog.Logger, name, offerID string, priority int, productID string, quantity int) Pickup {
	name = titleCase(name)
	category, known := categorize(name)
	if !known {
		logger.Info().Str("name", name).Msg("detected assumed rotating pickup")
	}
	return Pickup{
		Name:      name,
		OfferID:   offerID,
		Priority:  priority,
		ProductID: productID,
		Quantity:  quantity,
		Category:  category,
	}
}

// smallWords stay lower case inside a title.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "in": true, "nor": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "vs": true, "with": true,
}

// titleCase upper-cases the first letter of each word, including each part
// of a hyphenated word, except small words that are neither first nor last.
// Other letters are left as they are.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && i < len(words)-1 && smallWords[lower] {
			words[i] = lower
			continue
		}
		parts := strings.Split(w, "-")
		for j, p := range parts {
			parts[j] = upperFirst(p)
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
