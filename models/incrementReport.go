package models

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var incrementReportHeadings = []string{
	"Department",
	"Total Employees",
	"Eligible Employees",
	"Total Current Gross Salary",
	"Total Increment Amount",
	"Total New Gross Salary",
	"Average Increment %",
	"Total Fuel Allowance",
	"Total Bonus",
	"Total Financial Impact",
}

// ExportIncrementSummaryExcel writes one worksheet with a row per department
// summary of the company.
func ExportIncrementSummaryExcel(ctx context.Context, companyId string) (*excelize.File, error) {

	summaries, err := ListIncrementDetailsSummaries(ctx, companyId)
	if err != nil {
		return nil, err
	}

	departments, err := ListDepartmentTeams(ctx)
	if err != nil {
		return nil, err
	}
	departmentNames := map[int]string{}
	for _, d := range departments {
		departmentNames[d.ID] = d.DepartmentName
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, err
	}

	col := 'A'
	for _, h := range incrementReportHeadings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, s := range summaries {
		row := fmt.Sprint(i + 2)
		name := departmentNames[s.DepartmentTeamId]
		if name == "" {
			name = fmt.Sprintf("Department %d", s.DepartmentTeamId)
		}
		f.SetCellValue(sheetName, "A"+row, name)
		f.SetCellValue(sheetName, "B"+row, s.TotalEmployees)
		f.SetCellValue(sheetName, "C"+row, s.EligibleEmployees.String())
		f.SetCellValue(sheetName, "D"+row, s.TotalCurrentGrossSalary.String())
		f.SetCellValue(sheetName, "E"+row, s.TotalIncrementAmount.String())
		f.SetCellValue(sheetName, "F"+row, s.TotalNewGrossSalary.String())
		f.SetCellValue(sheetName, "G"+row, s.AverageIncrementPercentage.String())
		f.SetCellValue(sheetName, "H"+row, s.TotalFuelAllowance.String())
		f.SetCellValue(sheetName, "I"+row, s.TotalBonus.String())
		f.SetCellValue(sheetName, "J"+row, s.TotalFinancialImpact.String())
	}

	return f, nil
}
