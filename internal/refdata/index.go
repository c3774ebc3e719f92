package refdata

import (
	"megatex/internal/quote"
	"megatex/internal/util"
)

// Index maps curtain categories to designs and back, in sheet order.
type Index struct {
	categories []string
	byCategory map[string][]string
	byDesign   map[string][]string
}

func BuildIndex(ref *quote.ReferenceData) *Index {
	idx := &Index{
		byCategory: map[string][]string{},
		byDesign:   map[string][]string{},
	}
	if ref == nil {
		return idx
	}

	for _, key := range ref.DesignOrder {
		d := ref.Designs[key]
		for _, c := range d.Categories {
			ckey := util.NormalizeKey(c)
			if _, ok := idx.byCategory[ckey]; !ok {
				idx.categories = append(idx.categories, c)
			}
			idx.byCategory[ckey] = append(idx.byCategory[ckey], d.ID)
			idx.byDesign[key] = append(idx.byDesign[key], c)
		}
	}
	return idx
}

func (i *Index) Categories() []string {
	return append([]string(nil), i.categories...)
}

// Designs lists the designs of a category; nil when the category is
// unknown.
func (i *Index) Designs(category string) []string {
	return append([]string(nil), i.byCategory[util.NormalizeKey(category)]...)
}

func (i *Index) CategoriesOf(design string) []string {
	return append([]string(nil), i.byDesign[util.NormalizeKey(design)]...)
}
