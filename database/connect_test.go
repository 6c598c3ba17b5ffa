package database

import (
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		dsn      string
		want     string
		postgres bool
	}{
		{"./card_images.db", "./card_images.db", false},
		{"sqlite:///./sql_app.db", "./sql_app.db", false},
		{"sqlite:////var/lib/cards.db", "/var/lib/cards.db", false},
		{"sqlite://", ":memory:", false},
		{"postgres://u:p@db/cards", "postgres://u:p@db/cards", true},
		{"postgresql://u:p@db/cards", "postgresql://u:p@db/cards", true},
		{"postgresql+psycopg2://u:p@127.0.0.1:1/db", "postgresql://u:p@127.0.0.1:1/db", true},
		{"host=db user=cards", "host=db user=cards", true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got := normalizeDSN(tt.dsn)
			if got != tt.want {
				t.Fatalf("normalizeDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
			if isPostgres(got) != tt.postgres {
				t.Fatalf("isPostgres(%q) = %v, want %v", got, !tt.postgres, tt.postgres)
			}
		})
	}
}

func TestOpen_SQLAlchemySQLiteURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sql_app.db")

	db, err := Open("sqlite:///"+path, logger.Silent)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(db)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file at %s: %v", path, err)
	}
}
