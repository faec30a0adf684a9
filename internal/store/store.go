package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// StatusActive is the only status this service ever writes.
const StatusActive = "active"

// ErrUserNotFound is returned when no profile matches an email.
var ErrUserNotFound = errors.New("user not found")

// ErrAmbiguousUser is returned when more than one profile matches an email.
var ErrAmbiguousUser = errors.New("more than one user matches email")

// Subscription is one row of the subscriptions table. The pair
// (UserID, AutomationSlug) is unique.
type Subscription struct {
	UserID         string
	AutomationSlug string
	PlanName       string
	Status         string
	StartedAt      time.Time
	ShopifyOrderID string // empty means NULL
}

// Store is the identity/subscription backend.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (string, error)
	UpsertSubscription(ctx context.Context, sub Subscription) error
	Subscriptions(ctx context.Context, userID string) ([]Subscription, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the URL scheme: postgres:// and postgresql://
// use pgx, sqlite:// and file: use go-sqlite3.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return OpenPostgres(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return OpenSQLite(ctx, databaseURL)
	default:
		return nil, errors.Errorf("unsupported database url scheme in %q", redact(databaseURL))
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func redact(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i+3] + "..."
	}
	if len(u) > 8 {
		return u[:8] + "..."
	}
	return u
}
