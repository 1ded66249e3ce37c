package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
)

// Configurations holds the global constants formulas read. The first row is
// authoritative; extra rows are ignored.
type Configurations struct {
	ID                      int             `gorm:"primary_key" json:"id"`
	AsOfDate                time.Time       `json:"as_of_date"`
	BonusConstantMultiplier decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bonus_constant_multiplier"`
	FuelRate                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_rate"`
	CreatedAt               time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

const configurationsCacheKey = "configurations:first"

// GetConfigurations returns the authoritative Configurations row, redis or db.
func GetConfigurations(ctx context.Context) (*Configurations, error) {
	var conf Configurations
	exists, err := config.GetRedisObject(configurationsCacheKey, &conf)
	if err != nil {
		return nil, err
	}
	if exists {
		return &conf, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Order("id").First(&conf).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject(configurationsCacheKey, &conf, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return &conf, nil
}

type NewConfigurations struct {
	AsOfDate                time.Time `json:"as_of_date" validate:"required"`
	BonusConstantMultiplier string    `json:"bonus_constant_multiplier"`
	FuelRate                string    `json:"fuel_rate"`
}

// UpdateConfigurations overwrites the authoritative row (creating it when
// missing) and drops the cache.
func UpdateConfigurations(ctx context.Context, input *NewConfigurations) (*Configurations, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var conf Configurations
	err := db.WithContext(ctx).Order("id").First(&conf).Error
	if err != nil {
		conf = Configurations{
			AsOfDate:                input.AsOfDate,
			BonusConstantMultiplier: utils.DecimalOrZero(input.BonusConstantMultiplier),
			FuelRate:                utils.DecimalOrZero(input.FuelRate),
		}
		if err := db.WithContext(ctx).Create(&conf).Error; err != nil {
			return nil, err
		}
	} else {
		err = db.WithContext(ctx).Model(&conf).Updates(map[string]interface{}{
			"AsOfDate":                input.AsOfDate,
			"BonusConstantMultiplier": utils.DecimalOrZero(input.BonusConstantMultiplier),
			"FuelRate":                utils.DecimalOrZero(input.FuelRate),
		}).Error
		if err != nil {
			return nil, err
		}
	}

	if err := config.RemoveRedisKey(configurationsCacheKey); err != nil {
		return nil, err
	}
	return &conf, nil
}
