package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpNil(t *testing.T) {
	d := Dump(nil)
	if d.Message != "" || d.Code != "" || d.Chain != nil || d.PG != nil {
		t.Fatalf("expected zero dump, got %+v", d)
	}
}

func TestDumpCollectsCodeAndChain(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := fmt.Errorf("outer: %w", Wrap(CodeDependency, cause, "db: lock booking"))

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected code %s, got %s", CodeDependency, d.Code)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected the full unwrap chain, got %v", d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("expected no postgres details for a plain error, got %+v", d.PG)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		ConstraintName: "users_email_key",
		TableName:      "users",
	}
	err := Wrap(CodeDependency, pgErr, "db: insert user")

	d := Dump(err)
	if d.PG == nil {
		t.Fatalf("expected postgres details")
	}
	if d.PG.Code != "23505" || d.PG.Constraint != "users_email_key" || d.PG.Table != "users" {
		t.Fatalf("unexpected postgres details %+v", d.PG)
	}
}
