package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_license_activations_license_machine",
		TableName:      "license_activations",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDatabase, fmt.Errorf("insert activation: %w", pgErr), "activate machine")

	d := Dump(err)
	if d.Code != CodeDatabase || !d.Retryable {
		t.Fatalf("unexpected code data %+v", d)
	}
	if d.PGCode != "23505" || d.PGTable != "license_activations" {
		t.Fatalf("pg fields missing: %+v", d)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected full chain, got %v", d.Chain)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
