package domain

import (
	"fmt"
	"strings"
)

// Category is the weather class derived from an observation's free-text description.
type Category uint8

// The closed set of categories. Declaration order is the display order.
const (
	Clear Category = iota
	Cloudy
	Rain
	Snow
	Storm

	numCategories = iota
)

var categoryNames = [numCategories]string{"Clear", "Cloudy", "Rain", "Snow", "Storm"}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Clear, Cloudy, Rain, Snow, Storm}
}

func (c Category) String() string {
	if int(c) >= numCategories {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool { return int(c) < numCategories }

// MarshalText encodes the category as its tag, e.g. "Rain".
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal category: unknown value %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category tag (case-insensitive).
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("unmarshal category: unknown tag %q", text)
	}
	*c = parsed
	return nil
}

// ParseCategory maps a tag such as "rain" or "Rain" to its Category.
// Unknown tags report ok=false.
func ParseCategory(tag string) (Category, bool) {
	tag = strings.TrimSpace(tag)
	for i, name := range categoryNames {
		if strings.EqualFold(tag, name) {
			return Category(i), true
		}
	}
	return Clear, false
}

// classifierRules are checked in order; the first rule with a matching
// keyword wins. A description mentioning both rain and thunder is Rain.
var classifierRules = []struct {
	category Category
	keywords []string
}{
	{Rain, []string{"rain", "drizzle"}},
	{Snow, []string{"snow"}},
	{Storm, []string{"storm", "thunder"}},
	{Cloudy, []string{"cloud", "overcast"}},
}

// Classify derives the category of a weather description. It is total:
// empty or unmatched descriptions are Clear.
func Classify(description string) Category {
	if description == "" {
		return Clear
	}
	d := strings.ToLower(description)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.category
			}
		}
	}
	return Clear
}

// CategorySet is a set of categories. The zero value is empty.
type CategorySet uint8

// AllCategories is the set of every category, the default filter.
const AllCategories CategorySet = 1<<numCategories - 1

// NewCategorySet builds a set from the given categories; invalid values are ignored.
func NewCategorySet(cats ...Category) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	return c.Valid() && s&(1<<c) != 0
}

// With returns the set with c added.
func (s CategorySet) With(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

// Without returns the set with c removed.
func (s CategorySet) Without(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s &^ (1 << c)
}

// Toggle returns the set with c's membership flipped.
func (s CategorySet) Toggle(c Category) CategorySet {
	if s.Has(c) {
		return s.Without(c)
	}
	return s.With(c)
}

// Slice lists the members in display order.
func (s CategorySet) Slice() []Category {
	out := make([]Category, 0, numCategories)
	for _, c := range Categories() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of members.
func (s CategorySet) Len() int { return len(s.Slice()) }

func (s CategorySet) String() string {
	names := make([]string, 0, numCategories)
	for _, c := range s.Slice() {
		names = append(names, c.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
