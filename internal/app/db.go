package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	maxTracedQueryLength = 512
	binaryResultParam    = "disable_prepared_binary_result"
)

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := postgresDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(databaseName(dsn)),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// postgresDSN turns off binary results for prepared statements, which
// transaction-mode poolers cannot route. An explicit value in the DSN wins.
func postgresDSN(raw string, disableBinary bool) string {
	dsn := strings.TrimSpace(raw)
	if !disableBinary || dsn == "" || strings.Contains(dsn, binaryResultParam+"=") {
		return dsn
	}

	parsed, err := url.Parse(dsn)
	if err != nil || parsed.Scheme == "" {
		// key=value connection string
		return dsn + " " + binaryResultParam + "=yes"
	}
	query := parsed.Query()
	query.Set(binaryResultParam, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// databaseName extracts the database from either DSN form, for span attributes.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.Trim(parsed.Path, "/")
	}

	for _, pair := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(pair, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery collapses whitespace and caps the statement recorded on spans.
func traceQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) <= maxTracedQueryLength {
		return query
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut] + "..."
}
