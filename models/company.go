package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
)

type Company struct {
	ID        uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (input *NewCompany) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if len(strings.TrimSpace(input.Email)) > 0 && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	company := Company{
		ID:       uuid.New(),
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&company).Error
	if err != nil {
		return nil, err
	}

	return &company, nil
}

func GetCompanyById(ctx context.Context, companyId string) (*Company, error) {
	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).Where("id = ?", companyId).First(&company).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &company, nil
}
