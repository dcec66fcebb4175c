package category

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify_DefaultRules(t *testing.T) {
	c := Default()

	tests := []struct {
		merchant string
		expected string
	}{
		{"CU당산점", "편의점"},
		{"GS25 영등포점", "편의점"},
		{"배달의민족", "배달/식사"},
		{"STARBUCKS 영등포", "카페"},
		{"스타벅스 강남R점", "카페"},
		{"카카오T 서울택시", "교통"},
		{"SK 주유소", "차/주유"},
		{"쿠팡(주)", "쇼핑"},
		{"동네 빵집", ""},
		{"", ""},
	}

	for _, tc := range tests {
		got := c.Classify(tc.merchant)
		if got != tc.expected {
			t.Errorf("Classify(%q) = %q, want %q", tc.merchant, got, tc.expected)
		}
	}
}

func TestClassify_FirstRuleWins(t *testing.T) {
	c := NewClassifier([]Rule{
		{Keyword: "쿠팡", Category: "쇼핑"},
		{Keyword: "이츠", Category: "배달/식사"},
	})
	if got := c.Classify("쿠팡이츠"); got != "쇼핑" {
		t.Fatalf("expected earlier rule to win, got %q", got)
	}

	reversed := NewClassifier([]Rule{
		{Keyword: "이츠", Category: "배달/식사"},
		{Keyword: "쿠팡", Category: "쇼핑"},
	})
	if got := reversed.Classify("쿠팡이츠"); got != "배달/식사" {
		t.Fatalf("expected earlier rule to win after reorder, got %q", got)
	}
}

func TestNewClassifier_CopiesRules(t *testing.T) {
	rules := []Rule{{Keyword: "CU", Category: "편의점"}}
	c := NewClassifier(rules)
	rules[0].Category = "changed"

	if got := c.Classify("CU"); got != "편의점" {
		t.Fatalf("classifier must not observe caller mutation, got %q", got)
	}

	out := c.Rules()
	out[0].Keyword = "GS25"
	if got := c.Classify("CU"); got != "편의점" {
		t.Fatalf("Rules() must return a copy, got %q", got)
	}
}

func TestClassify_NilClassifier(t *testing.T) {
	var c *Classifier
	if got := c.Classify("CU"); got != "" {
		t.Fatalf("nil classifier should match nothing, got %q", got)
	}
}

func TestLoadRules(t *testing.T) {
	doc := `
rules:
  - keyword: 올리브영
    category: 뷰티
  - keyword: " CU "
    category: 편의점
`
	rules, err := LoadRules(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Keyword != "올리브영" || rules[0].Category != "뷰티" {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].Keyword != "CU" {
		t.Fatalf("expected keyword to be trimmed, got %q", rules[1].Keyword)
	}
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty document", "", ErrNoRules},
		{"no rules", "rules: []\n", ErrNoRules},
		{"missing category", "rules:\n  - keyword: CU\n", ErrInvalidRule},
		{"blank keyword", "rules:\n  - keyword: \"  \"\n    category: 편의점\n", ErrInvalidRule},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRules(strings.NewReader(tc.doc))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRules_MalformedYAML(t *testing.T) {
	if _, err := LoadRules(strings.NewReader("rules: [unclosed")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  - keyword: 다이소\n    category: 생활\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("LoadRulesFile: %v", err)
	}
	if got := NewClassifier(rules).Classify("다이소 당산점"); got != "생활" {
		t.Fatalf("unexpected category %q", got)
	}

	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
