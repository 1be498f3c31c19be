package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"eventhub/internal/config"
	"eventhub/internal/database"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
		downFlag   = flag.Int("down", 0, "Roll back the given number of migrations")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	migrator, err := database.NewMigrator(database.ConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer migrator.Close()

	switch {
	case *statusFlag:
		status, err := migrator.Status()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		printStatus(status)
	case *upFlag:
		if err := migrator.Up(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("All migrations completed successfully!")
	case *downFlag > 0:
		if err := migrator.Down(*downFlag); err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		fmt.Printf("Rolled back %d migration(s)\n", *downFlag)
	default:
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/migrate -status   # Show migration status")
		fmt.Println("  go run ./cmd/migrate -up       # Run pending migrations")
		fmt.Println("  go run ./cmd/migrate -down N   # Roll back N migrations")
		os.Exit(1)
	}
}

func printStatus(status *database.MigrationStatus) {
	fmt.Printf("Current version: %d", status.Current)
	if status.Dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()

	for _, m := range status.Migrations {
		state := "applied"
		if m.Version > status.Current {
			state = "pending"
		}
		fmt.Printf("  %03d  %-30s %s\n", m.Version, m.Name, state)
	}
	fmt.Printf("%d pending\n", len(status.Pending()))
}
