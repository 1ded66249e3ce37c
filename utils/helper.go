package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/increments_backend/config"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "MM"

var validate = validator.New()

// ValidateStruct runs go-playground/validator tags on the given payload.
func ValidateStruct(input interface{}) error {
	return validate.Struct(input)
}

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// DecimalOrZero coerces a raw decimal input to a persistable value:
// empty, whitespace-only and unparseable strings all become zero.
// Numeric columns are never stored null.
func DecimalOrZero(value string) decimal.Decimal {
	dec, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero
	}
	return dec
}

// DecimalPtrOrZero is DecimalOrZero for optional inputs (nil becomes zero).
func DecimalPtrOrZero(value *string) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return DecimalOrZero(*value)
}

// CompanyLock obtains a short-lived distributed lock scoped to one company.
// Used around multi-row seeding so two callers can't interleave.
func CompanyLock(ctx context.Context, companyId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", companyId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, companyId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for companyId", companyId, err)
		return nil, errors.New("could not obtain lock for companyId")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for companyId", companyId, err)
		return nil, err
	}

	release := func() {
		_ = lock.Release(ctx)
	}
	return release, nil
}

func GetCacheLifespan() time.Duration {
	return time.Hour
}
