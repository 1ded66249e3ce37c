package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mmdatafocus/increments_backend/appctx"
	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/engine"
)

// Flips eligible_for_increment for employees who reached six months of
// service at the configured as-of date. Meant for a daily cron; rerunning is
// harmless.
func main() {
	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.WithValue(context.Background(), appctx.ContextKeySkipTenantScope, true)
	flipped, err := engine.RunEligibilitySweep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d employees marked eligible\n", flipped)
}
