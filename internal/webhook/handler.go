package webhook

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"shopify-webhook/internal/store"
)

// Store is the part of the identity/subscription backend the handler uses.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (string, error)
	UpsertSubscription(ctx context.Context, sub store.Subscription) error
}

// Options configures a Handler.
type Options struct {
	Secret       string
	MaxBodyBytes int64
	Logger       log.Interface    // used when the request context carries none
	Now          func() time.Time // defaults to time.Now
}

// Handler receives Shopify order webhooks and records the purchased
// automation as an active subscription.
type Handler struct {
	store   Store
	secret  string
	maxBody int64
	logger  log.Interface
	now     func() time.Time
}

func NewHandler(st Store, opts Options) *Handler {
	h := &Handler{
		store:   st,
		secret:  opts.Secret,
		maxBody: opts.MaxBodyBytes,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if h.maxBody <= 0 {
		h.maxBody = 1 << 20
	}
	if h.logger == nil {
		h.logger = log.Log
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFor(r)

	if err := h.handle(w, r, logger); err != nil {
		kind := KindOf(err)
		entry := logger.WithError(err).WithField("status", kind.Status())
		if kind == KindPersistence {
			entry.Error("Webhook rejected")
		} else {
			entry.Warn("Webhook rejected")
		}
		if kind == KindMethodNotAllowed {
			w.Header().Set("Allow", http.MethodPost)
		}
		http.Error(w, kind.Body(), kind.Status())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "Subscription saved")
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, logger log.Interface) error {
	if r.Method != http.MethodPost {
		return reject(KindMethodNotAllowed, errors.Errorf("method %s", r.Method))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return reject(KindMalformedPayload, errors.Wrap(err, "read body"))
	}

	if !Verify(body, r.Header.Get(HeaderHMAC), h.secret) {
		return reject(KindInvalidSignature, errors.New("hmac mismatch"))
	}

	order, err := ParseOrder(body)
	if err != nil {
		return reject(KindMalformedPayload, err)
	}

	email := order.ResolvedEmail()
	title := order.ResolvedTitle()
	slug := Classify(title)
	logger = logger.WithFields(log.Fields{
		"email":   email,
		"orderID": string(order.ID),
		"slug":    slug,
	})
	logger.WithField("body", string(body)).Debug("Webhook received")

	return h.record(r.Context(), logger, email, store.Subscription{
		AutomationSlug: slug,
		PlanName:       title,
		Status:         store.StatusActive,
		StartedAt:      h.now(),
		ShopifyOrderID: string(order.ID),
	})
}

// record resolves email to a user and upserts sub for that user. Lookup
// failures of any cause surface as KindUserNotFound.
func (h *Handler) record(ctx context.Context, logger log.Interface, email string, sub store.Subscription) error {
	if email == "" {
		return reject(KindUserNotFound, errors.New("order has no email"))
	}

	userID, err := h.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.WithError(err).Error("User lookup failed")
		}
		return reject(KindUserNotFound, err)
	}

	sub.UserID = userID
	if err := h.store.UpsertSubscription(ctx, sub); err != nil {
		return reject(KindPersistence, err)
	}

	logger.WithField("userID", userID).Info("Subscription saved")
	return nil
}

func (h *Handler) loggerFor(r *http.Request) log.Interface {
	logger := log.FromContext(r.Context())
	if logger == nil || logger == log.Log {
		logger = h.logger
	}
	return logger.WithFields(log.Fields{
		"topic":     r.Header.Get("X-Shopify-Topic"),
		"shop":      r.Header.Get("X-Shopify-Shop-Domain"),
		"webhookID": r.Header.Get("X-Shopify-Webhook-Id"),
	})
}
