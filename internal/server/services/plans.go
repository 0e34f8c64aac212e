package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// PlanCatalog is the fixed list of purchasable data plans.
type PlanCatalog struct {
	plans []models.DataPlan
	byID  map[string]models.DataPlan
}

func NewPlanCatalog(plans []models.DataPlan) *PlanCatalog {
	c := &PlanCatalog{plans: plans, byID: make(map[string]models.DataPlan, len(plans))}
	for _, p := range plans {
		c.byID[p.ID] = p
	}
	return c
}

// DefaultPlanCatalog returns the catalog the wallet ships with.
func DefaultPlanCatalog() *PlanCatalog {
	return NewPlanCatalog([]models.DataPlan{
		{ID: "500MB", Price: decimal.NewFromInt(200)},
		{ID: "1GB", Price: decimal.NewFromInt(300)},
		{ID: "1.5GB", Price: decimal.NewFromInt(500)},
		{ID: "2GB", Price: decimal.NewFromInt(500)},
		{ID: "3GB", Price: decimal.NewFromInt(700)},
		{ID: "5GB", Price: decimal.NewFromInt(1200)},
	})
}

// Lookup returns common.ErrUnknownPlan for ids not in the catalog.
func (c *PlanCatalog) Lookup(id string) (models.DataPlan, error) {
	p, ok := c.byID[id]
	if !ok {
		return models.DataPlan{}, fmt.Errorf("%w: %q", common.ErrUnknownPlan, id)
	}
	return p, nil
}

// Plans lists the catalog in display order.
func (c *PlanCatalog) Plans() []models.DataPlan {
	out := make([]models.DataPlan, len(c.plans))
	copy(out, c.plans)
	return out
}
