package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/tradesnap/tradesnap/internal/models"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		want    string
		wantErr bool
	}{
		{
			name: "direct url wins",
			loc:  Location{URL: "postgres://u:p@localhost:5432/db", Instance: "proj:region:inst"},
			want: "postgres://u:p@localhost:5432/db",
		},
		{
			name: "cloud sql with password",
			loc:  Location{Instance: "proj:region:inst", User: "app", Password: "secret", Name: "tradesnap"},
			want: "host=/cloudsql/proj:region:inst user=app password=secret dbname=tradesnap sslmode=disable",
		},
		{
			name: "cloud sql iam",
			loc:  Location{Instance: "proj:region:inst", User: "app", Name: "tradesnap"},
			want: "host=/cloudsql/proj:region:inst user=app dbname=tradesnap sslmode=disable",
		},
		{name: "nothing set", loc: Location{}, wantErr: true},
		{name: "instance without user", loc: Location{Instance: "proj:region:inst", Name: "db"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL(tt.loc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildURL returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := map[string]string{
		"postgres://app:secret@db:5432/tradesnap":                "postgres://app:***@db:5432/tradesnap",
		"postgresql://app@db:5432/tradesnap":                     "postgresql://app@db:5432/tradesnap",
		"host=/cloudsql/x user=app password=secret dbname=trade": "host=/cloudsql/x user=app password=*** dbname=trade",
	}
	for input, want := range tests {
		if got := Redact(input); got != want {
			t.Errorf("Redact(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestOrderBy(t *testing.T) {
	tests := map[models.SortKey]string{
		"-created_date":    " ORDER BY created_date DESC, seq DESC",
		"confidence_score": " ORDER BY confidence_score ASC, seq ASC",
		"-asset_symbol":    " ORDER BY asset_symbol DESC, seq DESC",
		"-x; DROP TABLE":   " ORDER BY created_date DESC, seq DESC",
	}
	for key, want := range tests {
		if got := orderBy(key); got != want {
			t.Errorf("orderBy(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not a unique violation")
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := Migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 4 {
		t.Fatalf("expected at least 4 migrations, got %d", len(entries))
	}
}
