// Command maintenance runs one background job immediately against the configured database:
//
//	maintenance reconcile-seats
//	maintenance mark-overdue
//	maintenance purge-audit -retention 2160h
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/config"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/services"
	"github.com/smarttransit/backoffice-api/pkg/cache"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: maintenance [-database-url URL] reconcile-seats|mark-overdue|purge-audit [-retention DURATION]")
	os.Exit(2)
}

func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	// .env is optional; it keeps secrets off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Corrected trips must not keep serving a stale cached view
	var availabilityCache cache.Cache = cache.Noop{}
	if url := os.Getenv("REDIS_URL"); url != "" {
		redisCache, err := cache.NewRedis(ctx, url)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, cached availability will expire on its own")
		} else {
			defer redisCache.Close()
			availabilityCache = redisCache
		}
	}

	trips := database.NewTripRepository(db)
	audit := services.NewAuditService(database.NewAuditRepository(db), logger)
	availability := services.NewAvailabilityService(trips, availabilityCache, time.Minute, logger)
	jobs := services.NewCronService(db, trips, database.NewTransactionRepository(db), audit, availability, logger)

	switch cmd := flag.Arg(0); cmd {
	case "reconcile-seats":
		drifts, err := jobs.RunReconcileNow(ctx)
		if err != nil {
			log.Fatalf("reconciliation failed: %v", err)
		}
		for _, d := range drifts {
			fmt.Printf("trip %s: seats_available %d -> %d\n", d.TripID, d.Previous, d.Actual)
		}
		fmt.Printf("%d trips corrected\n", len(drifts))

	case "mark-overdue":
		n, err := jobs.RunMarkOverdueNow(ctx)
		if err != nil {
			log.Fatalf("failed to mark overdue transactions: %v", err)
		}
		fmt.Printf("%d transactions marked overdue\n", n)

	case "purge-audit":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		retention := fs.Duration("retention", 90*24*time.Hour, "delete audit logs older than this")
		_ = fs.Parse(flag.Args()[1:])

		n, err := audit.CleanupOldAuditLogs(ctx, *retention)
		if err != nil {
			log.Fatalf("failed to purge audit logs: %v", err)
		}
		fmt.Printf("%d audit log rows deleted\n", n)

	default:
		usage()
	}
}
