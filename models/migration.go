package models

import (
	"log"

	"github.com/mmdatafocus/increments_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &DepartmentTeams{},
		&Employee{}, &CurrentPackageDetails{}, &ProposedPackageDetails{}, &FinancialImpactPerMonth{},
		&IncrementDetailsSummary{},
		&EmployeeDraft{}, &CurrentPackageDetailsDraft{}, &ProposedPackageDetailsDraft{}, &FinancialImpactPerMonthDraft{},
		&IncrementDetailsSummaryDraft{},
		&Configurations{}, &DynamicAttribute{},
		&FieldReference{}, &Formula{}, &FieldFormula{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
