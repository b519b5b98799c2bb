package models

import "time"

// Client is a customer a devis can be issued to.
type Client struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Nom          string    `gorm:"column:nom;not null"`
	Contact      *string   `gorm:"column:contact"`
	AddressLine1 *string   `gorm:"column:address_line1"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	Zip          *string   `gorm:"column:zip"`
	City         *string   `gorm:"column:city"`
	Phone        *string   `gorm:"column:phone"`
	Email        *string   `gorm:"column:email;uniqueIndex:uq_clients_email"`
	TVANumber    *string   `gorm:"column:tva_number"`
	SIRET        *string   `gorm:"column:siret"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the GORM naming override.
func (Client) TableName() string { return "clients" }
