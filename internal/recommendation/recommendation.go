// Package recommendation sorts free-text health advice into categories.
package recommendation

import (
	"sort"
	"strings"
)

// Category is a recommendation bucket.
type Category string

const (
	CategoryOutdoor   Category = "outdoor"
	CategoryIndoor    Category = "indoor"
	CategoryHealth    Category = "health"
	CategorySensitive Category = "sensitive"
	CategoryGeneral   Category = "general"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryOutdoor,
	CategoryIndoor,
	CategoryHealth,
	CategorySensitive,
	CategoryGeneral,
}

// rule assigns category when any keyword is a substring of the text.
type rule struct {
	category Category
	keywords []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{CategoryOutdoor, []string{"outdoor", "exercise", "activity"}},
	{CategoryIndoor, []string{"indoor", "inside", "home"}},
	{CategorySensitive, []string{"mask", "sensitive", "children", "elderly"}},
	{CategoryHealth, []string{"health", "symptoms", "breathing"}},
}

// Item is a recommendation with its position in the input.
type Item struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// Buckets maps every category to its items in input order.
type Buckets map[Category][]Item

// CategoryOf returns the category for a single recommendation.
func CategoryOf(text string) Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return CategoryGeneral
}

// Categorize assigns every recommendation to exactly one category. All
// categories are present in the result, possibly empty.
func Categorize(texts []string) Buckets {
	buckets := make(Buckets, len(Categories))
	for _, c := range Categories {
		buckets[c] = []Item{}
	}
	for i, text := range texts {
		c := CategoryOf(text)
		buckets[c] = append(buckets[c], Item{Text: text, Index: i})
	}
	return buckets
}

// Flatten returns every item ordered by its original index.
func (b Buckets) Flatten() []Item {
	var items []Item
	for _, c := range Categories {
		items = append(items, b[c]...)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index < items[j].Index
	})
	return items
}

// Total returns the number of categorized items.
func (b Buckets) Total() int {
	n := 0
	for _, items := range b {
		n += len(items)
	}
	return n
}

// Headline returns the first recommendation in input order.
func (b Buckets) Headline() (Item, bool) {
	items := b.Flatten()
	if len(items) == 0 {
		return Item{}, false
	}
	return items[0], true
}
