package snapshot

import (
	"sort"
	"time"

	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/schema"
)

// BuildReferences describes the presets and the default offense table.
func BuildReferences() *models.References {
	return ReferencesFor(offense.Default(), time.Now())
}

// ReferencesFor describes the presets and the rule table of c. Categories
// without curated offense types are left out; entries are sorted by category.
func ReferencesFor(c *offense.Categorizer, now time.Time) *models.References {
	refs := &models.References{
		GeneratedAt:       now.UTC().Truncate(time.Second),
		Presets:           schema.Presets(),
		OffenseCategories: []models.CategoryStats{},
		OffenseTypeMap:    []models.CategoryTypes{},
	}

	for _, cat := range offense.Categories() {
		types := c.OffensesFor(cat)
		if len(types) == 0 {
			continue
		}
		keywords := c.KeywordsFor(cat)
		sort.Strings(keywords)
		if keywords == nil {
			keywords = []string{}
		}

		refs.OffenseCategories = append(refs.OffenseCategories, models.CategoryStats{
			Category:     cat,
			KeywordCount: len(keywords),
			TypeCount:    len(types),
		})
		refs.OffenseTypeMap = append(refs.OffenseTypeMap, models.CategoryTypes{
			Category:     cat,
			Keywords:     keywords,
			OffenseTypes: types,
		})
	}

	sort.Slice(refs.OffenseCategories, func(i, j int) bool {
		return refs.OffenseCategories[i].Category < refs.OffenseCategories[j].Category
	})
	sort.Slice(refs.OffenseTypeMap, func(i, j int) bool {
		return refs.OffenseTypeMap[i].Category < refs.OffenseTypeMap[j].Category
	})
	return refs
}
