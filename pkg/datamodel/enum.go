package datamodel

import (
	"fmt"
	"slices"
)

// enumRegistry is the closed set of enum categories and their allowed
// items. Unknown symbols are a load error, never silently accepted.
var enumRegistry = map[string][]string{
	"PartType":  {"Ball", "Block", "Cylinder"},
	"Material":  {"Concrete", "Grass", "Metal", "Neon", "Plastic", "Slate", "Wood"},
	"Font":      {"Arial", "Gotham", "SourceSans"},
	"SortOrder": {"LayoutOrder", "Name"},
}

// EnumItems returns the allowed items for a category in registry order.
// The second return is false for unknown categories.
func EnumItems(category string) ([]string, bool) {
	items, ok := enumRegistry[category]
	return items, ok
}

// EnumCategories returns every registered category, sorted.
func EnumCategories() []string {
	cats := make([]string, 0, len(enumRegistry))
	for c := range enumRegistry {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	return cats
}

// Validate checks the enum against the closed registry.
func (e Enum) Validate() error {
	items, ok := enumRegistry[e.Category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEnumCategory, e.Category)
	}
	if !slices.Contains(items, e.Item) {
		return fmt.Errorf("%w: Enum.%s.%s", ErrUnknownEnumItem, e.Category, e.Item)
	}
	return nil
}
