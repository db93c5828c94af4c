// Package offense maps free-text offense descriptions onto a fixed category taxonomy.
package offense

import "strings"

// Category is one of the fixed offense categories.
type Category string

const (
	Death       Category = "death"
	Violent     Category = "violent"
	Assault     Category = "assault"
	Robbery     Category = "robbery"
	Weapon      Category = "weapon"
	Drug        Category = "drug"
	Theft       Category = "theft"
	Burglary    Category = "burglary"
	Vehicle     Category = "vehicle"
	Fraud       Category = "fraud"
	Traffic     Category = "traffic"
	Animal      Category = "animal"
	Property    Category = "property"
	PublicOrder Category = "public_order"
	Other       Category = "other"
)

// priority is the order both matching passes walk the categories in.
// Severe categories come first so broad keywords never mask them.
var priority = []Category{
	Death, Violent, Assault, Robbery, Weapon, Drug, Theft, Burglary,
	Vehicle, Fraud, Traffic, Animal, Property, PublicOrder, Other,
}

// Categories returns every category in matching priority order.
func Categories() []Category {
	return append([]Category(nil), priority...)
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Valid reports whether c is a member of the taxonomy.
func (c Category) Valid() bool {
	for _, p := range priority {
		if c == p {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }
