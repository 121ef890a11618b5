package models

import "fmt"

const (
	MaxSimulations     = 100000
	DefaultSimulations = 1000
)

type ReorderRequest struct {
	DatasetID        string  `json:"dataset_id"`
	LeadTimeDays     int     `json:"lead_time_days"`
	ServiceLevel     float64 `json:"service_level"`
	CurrentInventory int     `json:"current_inventory"`
}

func (r ReorderRequest) Validate() error {
	if r.DatasetID == "" {
		return fmt.Errorf("dataset id is required")
	}
	if r.LeadTimeDays < 1 {
		return fmt.Errorf("lead time must be at least 1 day")
	}
	if r.ServiceLevel <= 0 || r.ServiceLevel >= 1 {
		return fmt.Errorf("service level must be between 0 and 1")
	}
	if r.CurrentInventory < 0 {
		return fmt.Errorf("current inventory cannot be negative")
	}
	return nil
}

type ReorderRecommendation struct {
	ReorderPoint        int `json:"reorder_point"`
	SafetyStock         int `json:"safety_stock"`
	RecommendedOrderQty int `json:"recommended_order_qty"`
}

type SimulationRequest struct {
	DatasetID        string `json:"dataset_id"`
	CurrentInventory int    `json:"current_inventory"`
	Simulations      int    `json:"simulations"`
}

func (r SimulationRequest) Validate() error {
	if r.DatasetID == "" {
		return fmt.Errorf("dataset id is required")
	}
	if r.CurrentInventory < 0 {
		return fmt.Errorf("current inventory cannot be negative")
	}
	if r.Simulations < 1 || r.Simulations > MaxSimulations {
		return fmt.Errorf("simulations must be between 1 and %d", MaxSimulations)
	}
	return nil
}

type SimulationOutcome struct {
	StockoutProbability  float64 `json:"stockout_probability"`
	ExpectedStockoutDays float64 `json:"expected_stockout_days"`
	RiskLevel            string  `json:"risk_level"`
}
