package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mmdatafocus/increments_backend/appctx"
	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
)

// Seeds the field reference manifest, the default formula catalog and the
// default configurations row. Safe to rerun: everything upserts by id.
func main() {
	migrate := flag.Bool("migrate", false, "Run table migration before seeding")
	flag.Parse()

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	if *migrate {
		models.MigrateTable()
	}

	ctx := context.WithValue(context.Background(), appctx.ContextKeySkipTenantScope, true)
	if err := models.SeedDefaults(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("defaults seeded")
}
