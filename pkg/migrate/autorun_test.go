package migrate

import (
	"context"
	"testing"

	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/db"
	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

func TestMaybeRunDevBootstrapsSQLite(t *testing.T) {
	ctx := context.Background()
	dbCfg := config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file:autorun_bootstrap?mode=memory&cache=shared"}
	client, err := db.New(ctx, dbCfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}, DB: dbCfg}
	logg := logger.New(logger.Options{ServiceName: "migrate-test"})

	if err := MaybeRunDev(ctx, cfg, logg, client); err != nil {
		t.Fatalf("maybe run dev: %v", err)
	}

	for _, model := range models.All() {
		if !client.DB().Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestMaybeRunDevSkipsPostgresOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	logg := logger.New(logger.Options{ServiceName: "migrate-test"})
	if err := MaybeRunDev(context.Background(), cfg, logg, nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
