package models

import "time"

// Parameters is the single-row company configuration: identity block printed
// on documents plus the margin and leasing knobs the pricing engine reads.
type Parameters struct {
	ID uint `gorm:"column:id;primaryKey;autoIncrement"`

	CompanyName  *string `gorm:"column:company_name"`
	AddressLine1 *string `gorm:"column:address_line1"`
	AddressLine2 *string `gorm:"column:address_line2"`
	Zip          *string `gorm:"column:zip"`
	City         *string `gorm:"column:city"`
	Phone        *string `gorm:"column:phone"`
	Email        *string `gorm:"column:email"`
	IBAN         *string `gorm:"column:iban"`
	TVANumber    *string `gorm:"column:tva_number"`
	SIRET        *string `gorm:"column:siret"`
	APRM         *string `gorm:"column:aprm"`

	MarginRate               float64 `gorm:"column:margin_rate;not null;default:0"`
	MarginRateLocation       float64 `gorm:"column:margin_rate_location;not null;default:0"`
	LocationSubscriptionCost float64 `gorm:"column:location_subscription_cost;not null;default:0"`
	LocationInterestsCost    float64 `gorm:"column:location_interests_cost;not null;default:0"`
	LocationTime             int     `gorm:"column:location_time;not null;default:0"`
	GeneralConditionsSales   *string `gorm:"column:general_conditions_sales"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (Parameters) TableName() string { return "parameters" }
