package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/brpag/gateway/internal/customer/domain"
	"gorm.io/gorm"
)

type gormRepository struct{}

// Provide builds the gorm-backed customer repository.
func Provide() customerdomain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, customerdomain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) FindByCpfCnpj(ctx context.Context, db *gorm.DB, cpfCnpj string) (*customerdomain.Customer, error) {
	cpfCnpj = strings.TrimSpace(cpfCnpj)
	var customer customerdomain.Customer
	err := db.WithContext(ctx).First(&customer, "cpf_cnpj = ?", cpfCnpj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormRepository) UpdateExternalID(ctx context.Context, db *gorm.DB, id snowflake.ID, externalID string) error {
	return db.WithContext(ctx).
		Model(&customerdomain.Customer{}).
		Where("id = ?", id).
		Update("external_id", externalID).Error
}
