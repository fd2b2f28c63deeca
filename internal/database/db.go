package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to the MySQL database backing the certificate issuance log
// and verifies the connection. The issuance log is an optional sink; the
// service runs without it.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureIssuanceTable creates the certificate_issues table when absent so a
// fresh database works without a separate migration step.
func EnsureIssuanceTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS certificate_issues (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		certificate_id VARCHAR(128) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		patient_name VARCHAR(255) NOT NULL,
		document_id VARCHAR(64) NOT NULL,
		vaccine_count INT UNSIGNED NOT NULL,
		page_count INT UNSIGNED NOT NULL,
		issued_at DATETIME NOT NULL,
		INDEX idx_certificate_issues_user (user_id)
	)`)
	return err
}
