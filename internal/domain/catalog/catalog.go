// Package catalog holds the templates of the well-known plans that can be
// purchased by slug before a plan row exists.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// Template describes the plan created for a well-known slug
type Template struct {
	Type                model.PlanType
	Name                string
	Description         string
	Price               decimal.Decimal
	BillingCycle        model.BillingCycle
	Features            []string
	MaxAccounts         *int
	DailyBudgetCap      *decimal.Decimal
	UnlimitedBudget     bool
	TeamCollaboration   bool
	DedicatedConsultant bool
}

// NewPlan builds an active, unsaved plan from the template
func (t Template) NewPlan(currency string) *model.Plan {
	features := make(model.Features, len(t.Features))
	copy(features, t.Features)

	plan := &model.Plan{
		Type:                t.Type,
		Name:                t.Name,
		Description:         t.Description,
		Price:               t.Price,
		Currency:            currency,
		BillingCycle:        t.BillingCycle,
		Features:            features,
		UnlimitedBudget:     t.UnlimitedBudget,
		TeamCollaboration:   t.TeamCollaboration,
		DedicatedConsultant: t.DedicatedConsultant,
		IsActive:            true,
	}
	if t.MaxAccounts != nil {
		v := *t.MaxAccounts
		plan.MaxAccounts = &v
	}
	if t.DailyBudgetCap != nil {
		v := *t.DailyBudgetCap
		plan.DailyBudgetCap = &v
	}
	return plan
}

// Catalog is an immutable set of templates keyed by plan type
type Catalog struct {
	templates map[model.PlanType]Template
	order     []model.PlanType
}

type plansFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Type                string   `yaml:"type"`
	Name                string   `yaml:"name"`
	Description         string   `yaml:"description"`
	Price               string   `yaml:"price"`
	BillingCycle        string   `yaml:"billing_cycle"`
	Features            []string `yaml:"features"`
	MaxAccounts         *int     `yaml:"max_accounts"`
	DailyBudgetCap      *string  `yaml:"daily_budget_cap"`
	UnlimitedBudget     bool     `yaml:"unlimited_budget"`
	TeamCollaboration   bool     `yaml:"team_collaboration"`
	DedicatedConsultant bool     `yaml:"dedicated_consultant"`
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(defaultPlans)
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}

	var file plansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal plan catalog yaml: %w", err)
	}

	c := &Catalog{templates: make(map[model.PlanType]Template, len(file.Plans))}
	for i, entry := range file.Plans {
		tmpl, err := entry.template()
		if err != nil {
			return nil, fmt.Errorf("plans[%d]: %w", i, err)
		}
		if _, dup := c.templates[tmpl.Type]; dup {
			return nil, fmt.Errorf("plans[%d]: duplicate type %q", i, tmpl.Type)
		}
		c.templates[tmpl.Type] = tmpl
		c.order = append(c.order, tmpl.Type)
	}
	return c, nil
}

func (e planEntry) template() (Template, error) {
	planType, ok := model.ParsePlanType(e.Type)
	if !ok {
		return Template{}, fmt.Errorf("type %q is not a well-known plan type", e.Type)
	}
	if strings.TrimSpace(e.Name) == "" {
		return Template{}, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return Template{}, fmt.Errorf("invalid price %q: %w", e.Price, err)
	}
	if price.IsNegative() {
		return Template{}, fmt.Errorf("price must not be negative")
	}

	cycle := model.BillingCycle(strings.ToLower(e.BillingCycle))
	switch cycle {
	case "":
		cycle = model.BillingCycleMonthly
	case model.BillingCycleWeekly, model.BillingCycleMonthly, model.BillingCycleYearly:
	default:
		return Template{}, fmt.Errorf("invalid billing_cycle %q", e.BillingCycle)
	}

	tmpl := Template{
		Type:                planType,
		Name:                e.Name,
		Description:         e.Description,
		Price:               price,
		BillingCycle:        cycle,
		Features:            e.Features,
		MaxAccounts:         e.MaxAccounts,
		UnlimitedBudget:     e.UnlimitedBudget,
		TeamCollaboration:   e.TeamCollaboration,
		DedicatedConsultant: e.DedicatedConsultant,
	}
	if e.DailyBudgetCap != nil {
		budgetCap, err := decimal.NewFromString(*e.DailyBudgetCap)
		if err != nil {
			return Template{}, fmt.Errorf("invalid daily_budget_cap %q: %w", *e.DailyBudgetCap, err)
		}
		tmpl.DailyBudgetCap = &budgetCap
	}
	return tmpl, nil
}

// Lookup matches slug case-insensitively against the template types
func (c *Catalog) Lookup(slug string) (Template, bool) {
	planType, ok := model.ParsePlanType(slug)
	if !ok {
		return Template{}, false
	}
	tmpl, ok := c.templates[planType]
	return tmpl, ok
}

// Templates returns all templates in file order
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.templates[t])
	}
	return out
}
