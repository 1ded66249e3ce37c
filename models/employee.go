package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
)

type Employee struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	CompanyId            string    `gorm:"type:char(36);index;not null" json:"company_id"`
	DepartmentTeamId     int       `gorm:"index;not null" json:"department_team_id"`
	Fullname             string    `gorm:"size:100;not null" json:"fullname"`
	Email                string    `gorm:"size:100" json:"email"`
	Phone                string    `gorm:"size:20" json:"phone"`
	Designation          string    `gorm:"size:100" json:"designation"`
	DateOfJoining        time.Time `json:"date_of_joining"`
	EligibleForIncrement *bool     `gorm:"not null;default:false" json:"eligible_for_increment"`
	Resign               *bool     `gorm:"not null;default:false" json:"resign"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	DepartmentTeamId int       `json:"department_team_id" validate:"required"`
	Fullname         string    `json:"fullname" validate:"required"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Designation      string    `json:"designation"`
	DateOfJoining    time.Time `json:"date_of_joining" validate:"required"`
	Resign           *bool     `json:"resign"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewEmployee) validate(ctx context.Context, companyId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Employee](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[DepartmentTeams](ctx, companyId, input.DepartmentTeamId); err != nil {
		return errors.New("department team not found")
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

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	resign := input.Resign
	if resign == nil {
		resign = utils.NewFalse()
	}

	employee := Employee{
		CompanyId:            companyId,
		DepartmentTeamId:     input.DepartmentTeamId,
		Fullname:             input.Fullname,
		Email:                input.Email,
		Phone:                input.Phone,
		Designation:          input.Designation,
		DateOfJoining:        input.DateOfJoining,
		EligibleForIncrement: utils.NewFalse(),
		Resign:               resign,
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&employee).Error
	if err != nil {
		return nil, err
	}

	return &employee, nil
}

func UpdateEmployee(ctx context.Context, id int, input *NewEmployee) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	employee, err := utils.FetchModel[Employee](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"DepartmentTeamId": input.DepartmentTeamId,
		"Fullname":         input.Fullname,
		"Email":            input.Email,
		"Phone":            input.Phone,
		"Designation":      input.Designation,
		"DateOfJoining":    input.DateOfJoining,
	}
	if input.Resign != nil {
		updates["Resign"] = *input.Resign
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&employee).Updates(updates).Error
	if err != nil {
		return nil, err
	}

	return employee, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return utils.FetchSingleModel[Employee](ctx, id)
}

// ListScopeEmployees returns the employees of one (company, department) scope.
// eligibleOnly additionally filters to eligible_for_increment AND NOT resign.
func ListScopeEmployees(ctx context.Context, companyId string, departmentTeamId int, eligibleOnly bool) ([]*Employee, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId)
	if eligibleOnly {
		dbCtx = dbCtx.Where("eligible_for_increment = ? AND resign = ?", true, false)
	}
	var employees []*Employee
	if err := dbCtx.Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}
