package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mmdatafocus/increments_backend/appctx"
	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/engine"
	"github.com/mmdatafocus/increments_backend/models"
)

// Rebuilds the increment details summaries from the base tables. With
// --department-team-id it targets one scope, otherwise every department of
// the company. --draft recalculates the draft universe instead.
func main() {
	companyID := flag.String("company-id", "", "Required: company id (uuid)")
	departmentTeamID := flag.Int("department-team-id", 0, "Limit to one department team")
	draft := flag.Bool("draft", false, "Recalculate the draft universe")
	flag.Parse()

	if strings.TrimSpace(*companyID) == "" {
		fmt.Fprintln(os.Stderr, "--company-id is required")
		os.Exit(1)
	}

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.WithValue(context.Background(), appctx.ContextKeyCompanyId, *companyID)

	var scopes []int
	if *departmentTeamID > 0 {
		scopes = append(scopes, *departmentTeamID)
	} else {
		departments, err := models.ListDepartmentTeams(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list departments: %v\n", err)
			os.Exit(1)
		}
		for _, d := range departments {
			scopes = append(scopes, d.ID)
		}
	}

	for _, deptID := range scopes {
		var err error
		if *draft {
			err = engine.RecalculateDraftSummary(ctx, *companyID, deptID)
		} else {
			err = engine.RecalculateSummary(ctx, *companyID, deptID)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "department %d: %v\n", deptID, err)
			os.Exit(1)
		}
		fmt.Printf("department %d recalculated\n", deptID)
	}
}
