package category

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidRule = errors.New("invalid category rule")
	ErrNoRules     = errors.New("rule file contains no rules")
)

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules decodes a YAML rule document of the form:
//
//	rules:
//	  - keyword: 배달의민족
//	    category: 배달/식사
//
// File order is priority order.
func LoadRules(r io.Reader) ([]Rule, error) {
	var doc ruleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRules
		}
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, ErrNoRules
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for i, rule := range doc.Rules {
		rule.Keyword = strings.TrimSpace(rule.Keyword)
		rule.Category = strings.TrimSpace(rule.Category)
		if rule.Keyword == "" || rule.Category == "" {
			return nil, fmt.Errorf("rule %d: %w: keyword and category are required", i+1, ErrInvalidRule)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRulesFile reads rules from a YAML file on disk.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
