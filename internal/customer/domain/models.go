package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is the local identity record for a payer, keyed by CPF/CNPJ.
// ExternalID is the provider's customer id, attached after the first
// successful provider call.
type Customer struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Name              string       `gorm:"type:text;not null"`
	Email             string       `gorm:"type:text;not null"`
	CpfCnpj           string       `gorm:"type:text;not null;uniqueIndex"`
	Phone             string       `gorm:"type:text"`
	Address           string       `gorm:"type:text"`
	AddressNumber     string       `gorm:"type:text"`
	AddressComplement string       `gorm:"type:text"`
	Province          string       `gorm:"type:text"`
	PostalCode        string       `gorm:"type:text"`
	ExternalID        string       `gorm:"type:text;index"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
