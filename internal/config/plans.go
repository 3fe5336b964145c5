package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// DefaultDomainSuffix is used for plans that don't name their own suffix.
const DefaultDomainSuffix = ".com"

type Plan struct {
	Name         string   `yaml:"name"`
	Title        string   `yaml:"title"`
	Price        int64    `yaml:"price"`
	DomainSuffix string   `yaml:"domain_suffix"`
	Features     []string `yaml:"features"`
}

// Catalog is the ordered list of plans a user can pick from.
type Catalog struct {
	Plans []Plan `yaml:"plans"`
}

// LoadPlans reads the catalog from path, or the built-in one when path is empty.
func LoadPlans(path string) (*Catalog, error) {
	raw := defaultPlans
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read plans file: %w", err)
		}
		raw = b
	}
	return ParsePlans(raw)
}

func ParsePlans(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}
	if len(c.Plans) == 0 {
		return nil, errors.New("plans catalog is empty")
	}
	seen := make(map[string]bool, len(c.Plans))
	for i := range c.Plans {
		p := &c.Plans[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		if p.Name == "" {
			return nil, fmt.Errorf("plan #%d has no name", i+1)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate plan %q", p.Name)
		}
		seen[p.Name] = true
		if p.Price <= 0 {
			return nil, fmt.Errorf("plan %q must have a positive price", p.Name)
		}
		if p.DomainSuffix == "" {
			p.DomainSuffix = DefaultDomainSuffix
		}
		if !strings.HasPrefix(p.DomainSuffix, ".") {
			p.DomainSuffix = "." + p.DomainSuffix
		}
		if p.Title == "" {
			p.Title = p.Name
		}
	}
	return &c, nil
}

func (c *Catalog) Get(name string) (Plan, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// DomainSuffix returns the TLD bundled with a plan (".in" for lite,
// ".com" otherwise).
func (c *Catalog) DomainSuffix(plan string) string {
	if p, ok := c.Get(plan); ok {
		return p.DomainSuffix
	}
	return DefaultDomainSuffix
}
