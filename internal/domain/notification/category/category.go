// Package category infers a spending category from a merchant name.
// Rules are an ordered keyword list; the first keyword found in the merchant wins.
package category

import "strings"

// Rule maps a merchant keyword to a category label.
type Rule struct {
	Keyword  string `yaml:"keyword" json:"keyword"`
	Category string `yaml:"category" json:"category"`
}

// DefaultRules returns the built-in rule list in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "배달의민족", Category: "배달/식사"},
		{Keyword: "요기요", Category: "배달/식사"},
		{Keyword: "쿠팡", Category: "쇼핑"},
		{Keyword: "이마트24", Category: "편의점"},
		{Keyword: "GS25", Category: "편의점"},
		{Keyword: "CU", Category: "편의점"},
		{Keyword: "스타벅스", Category: "카페"},
		{Keyword: "STARBUCKS", Category: "카페"},
		{Keyword: "카카오T", Category: "교통"},
		{Keyword: "지하철", Category: "교통"},
		{Keyword: "주유소", Category: "차/주유"},
	}
}

// Classifier holds an immutable, ordered rule list. It is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over a private copy of rules.
func NewClassifier(rules []Rule) *Classifier {
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Classifier{rules: owned}
}

// Default creates a classifier over DefaultRules.
func Default() *Classifier {
	return NewClassifier(DefaultRules())
}

// Classify returns the category of the first rule whose keyword occurs in merchant,
// or "" when merchant is empty or no rule matches.
func (c *Classifier) Classify(merchant string) string {
	if c == nil || merchant == "" {
		return ""
	}
	for _, r := range c.rules {
		if r.Keyword != "" && strings.Contains(merchant, r.Keyword) {
			return r.Category
		}
	}
	return ""
}

// Rules returns a copy of the rule list in priority order.
func (c *Classifier) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
