package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Postgres talks to the Supabase database that owns the profiles and
// subscriptions tables.
type Postgres struct {
	DB *pgxpool.Pool
}

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create pgx pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Postgres{DB: pool}, nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (string, error) {
	rows, err := p.DB.Query(ctx, `SELECT id::text FROM profiles WHERE email = $1 LIMIT 2`, email)
	if err != nil {
		return "", errors.Wrap(err, "query profiles")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", errors.Wrap(err, "scan profiles")
	}
	return single(ids)
}

func (p *Postgres) UpsertSubscription(ctx context.Context, sub Subscription) error {
	_, err := p.DB.Exec(ctx,
		`INSERT INTO subscriptions (user_id, automation_slug, plan_name, status, started_at, shopify_order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, automation_slug) DO UPDATE SET
			plan_name = EXCLUDED.plan_name,
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			shopify_order_id = EXCLUDED.shopify_order_id`,
		sub.UserID, sub.AutomationSlug, sub.PlanName, sub.Status, sub.StartedAt, nullable(sub.ShopifyOrderID),
	)
	return errors.Wrap(err, "upsert subscription")
}

func (p *Postgres) Subscriptions(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := p.DB.Query(ctx,
		`SELECT user_id::text, automation_slug, plan_name, status, started_at, shopify_order_id
		FROM subscriptions WHERE user_id = $1 ORDER BY automation_slug`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query subscriptions")
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var (
			s       Subscription
			started time.Time
			orderID *string
		)
		if err := rows.Scan(&s.UserID, &s.AutomationSlug, &s.PlanName, &s.Status, &started, &orderID); err != nil {
			return nil, errors.Wrap(err, "scan subscription")
		}
		s.StartedAt = started
		if orderID != nil {
			s.ShopifyOrderID = *orderID
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate subscriptions")
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.DB.Close()
	return nil
}

func single(ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", ErrUserNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguousUser
	}
}
