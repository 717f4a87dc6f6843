package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/petlife-licenser/internal/auth"
	"github.com/angelmondragon/petlife-licenser/internal/users"
	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/db"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	// Flags
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate|create-admin")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")

	// Command-specific flags
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	username := flag.String("username", "admin", "admin username (for create-admin)")
	password := flag.String("password", "", "admin password (for create-admin); generated when empty")
	fullName := flag.String("full-name", "Administrator", "admin display name (for create-admin)")
	role := flag.String("role", string(enums.AdminRoleAdmin), "admin role: admin|viewer (for create-admin)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	// Commands that do NOT require DB
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		logg.Info(ctx, "migrate ready")
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		logg.Info(ctx, "migrate ready")
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	// Everything else needs DB
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if cfg.DB.IsSQLite() || *cmd == "create-admin" {
		// sqlite has no goose history; its schema comes from the ledger models.
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			fmt.Fprintf(os.Stderr, "schema bootstrap failed: %v\n", err)
			os.Exit(1)
		}
	}

	if *cmd == "create-admin" {
		user, generated, err := auth.EnsureAdmin(ctx, users.NewRepository(dbClient.DB()), auth.AdminInput{
			Username: *username,
			Password: *password,
			FullName: *fullName,
			Role:     enums.AdminRole(*role),
		}, cfg.Password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create admin failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("admin user ready: %s (%s)\n", user.Username, user.Role)
		if *password == "" {
			fmt.Println("generated password:", generated)
		}
		return
	}

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "sqlite schema bootstrapped from models")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		if err := migrate.Run(ctx, sqlDB, *dir, "up"); err != nil {
			fmt.Fprintf(os.Stderr, "goose up failed: %v\n", err)
			os.Exit(1)
		}

	case "down":
		if err := migrate.Run(ctx, sqlDB, *dir, "down"); err != nil {
			fmt.Fprintf(os.Stderr, "goose down failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		if err := migrate.Run(ctx, sqlDB, *dir, "status"); err != nil {
			fmt.Fprintf(os.Stderr, "goose status failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
