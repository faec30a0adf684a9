package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS profiles_email_idx ON profiles (email);
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL REFERENCES profiles (id),
	automation_slug TEXT NOT NULL,
	plan_name TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	shopify_order_id TEXT,
	UNIQUE (user_id, automation_slug)
);`

// SQLite is a file or in-memory store with the same tables as the
// production database. It is meant for local runs and tests.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens path (":memory:" works) and creates the tables if they
// are missing.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create sqlite schema")
	}
	return &SQLite{db: db}, nil
}

// AddProfile inserts or replaces a profile row.
func (s *SQLite) AddProfile(ctx context.Context, id, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email`,
		id, email,
	)
	return errors.Wrap(err, "insert profile")
}

func (s *SQLite) FindUserByEmail(ctx context.Context, email string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM profiles WHERE email = ? LIMIT 2`, email)
	if err != nil {
		return "", errors.Wrap(err, "query profiles")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", errors.Wrap(err, "scan profile")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "iterate profiles")
	}
	return single(ids)
}

func (s *SQLite) UpsertSubscription(ctx context.Context, sub Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, automation_slug, plan_name, status, started_at, shopify_order_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, automation_slug) DO UPDATE SET
			plan_name = excluded.plan_name,
			status = excluded.status,
			started_at = excluded.started_at,
			shopify_order_id = excluded.shopify_order_id`,
		sub.UserID, sub.AutomationSlug, sub.PlanName, sub.Status, sub.StartedAt.UTC(), nullable(sub.ShopifyOrderID),
	)
	return errors.Wrap(err, "upsert subscription")
}

func (s *SQLite) Subscriptions(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, automation_slug, plan_name, status, started_at, shopify_order_id
		FROM subscriptions WHERE user_id = ? ORDER BY automation_slug`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query subscriptions")
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var (
			sub     Subscription
			orderID sql.NullString
		)
		if err := rows.Scan(&sub.UserID, &sub.AutomationSlug, &sub.PlanName, &sub.Status, &sub.StartedAt, &orderID); err != nil {
			return nil, errors.Wrap(err, "scan subscription")
		}
		sub.ShopifyOrderID = orderID.String
		out = append(out, sub)
	}
	return out, errors.Wrap(rows.Err(), "iterate subscriptions")
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
