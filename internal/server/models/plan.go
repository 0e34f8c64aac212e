package models

import "github.com/shopspring/decimal"

// DataPlan is one entry of the data plan catalog.
type DataPlan struct {
	ID    string
	Price decimal.Decimal
}

// DataOrder is a data bundle purchase request.
type DataOrder struct {
	Network string
	Phone   string
	PlanID  string
	PIN     string
}
