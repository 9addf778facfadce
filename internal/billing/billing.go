// Package billing ingests Stripe webhooks and turns invoice lifecycle
// notifications into usage events, so payment behavior flows into
// health scoring without the payment processor calling the events API
// directly.
//
// Deliveries are verified against the webhook signing secret. Only
// invoice.paid and invoice.payment_failed are consumed; everything
// else is acknowledged and dropped. The Stripe invoice must carry a
// customer_id metadata entry pointing at the Pulseboard customer.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/metrics"
)

// Stripe signs payloads up to a few KB; anything larger is not a
// legitimate delivery.
const maxBodyBytes = 64 * 1024

// metadataCustomerKey is the invoice metadata entry that links a
// Stripe invoice to a Pulseboard customer.
const metadataCustomerKey = "customer_id"

// CustomerChecker verifies the mapped customer exists before an
// invoice event is recorded.
type CustomerChecker interface {
	Get(ctx context.Context, id int64) (*customer.Customer, error)
}

// Notifier receives recorded invoice events for live streaming. Optional.
type Notifier interface {
	UsageRecorded(ev *event.Event)
}

// Handler processes Stripe webhook deliveries.
type Handler struct {
	events    event.Store
	customers CustomerChecker
	secret    string
	notifier  Notifier
	logger    *slog.Logger
}

// NewHandler creates a Stripe webhook handler. secret is the endpoint's
// signing secret from the Stripe dashboard.
func NewHandler(events event.Store, customers CustomerChecker, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		events:    events,
		customers: customers,
		secret:    secret,
		logger:    logging.Component(logger, "billing"),
	}
}

// WithNotifier attaches a sink for recorded invoice events.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// RegisterRoutes mounts the webhook endpoint. Stripe deliveries are
// unauthenticated HTTP, so this lives outside the /v1 API group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.HandleWebhook)
}

// HandleWebhook verifies and processes a single Stripe delivery.
// POST /webhooks/stripe
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		metrics.BillingWebhooksTotal.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_payload",
			"message": "Failed to read request body",
		})
		return
	}

	// Accounts can be pinned to a different Stripe API version than this
	// library; the invoice fields read here exist across versions, so a
	// version mismatch must not reject the delivery.
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		metrics.BillingWebhooksTotal.WithLabelValues("bad_signature").Inc()
		h.logger.Warn("rejected stripe webhook", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_signature",
			"message": "Webhook signature verification failed",
		})
		return
	}

	ev, err := invoiceEvent(stripeEvent)
	if err != nil {
		metrics.BillingWebhooksTotal.WithLabelValues("bad_payload").Inc()
		h.logger.Warn("unmappable stripe webhook",
			"stripeEvent", string(stripeEvent.Type), "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_payload",
			"message": err.Error(),
		})
		return
	}
	if ev == nil {
		metrics.BillingWebhooksTotal.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.customers.Get(ctx, ev.CustomerID); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			// Unknown mapping will not fix itself on retry, so tell
			// Stripe the delivery succeeded and surface it in logs.
			metrics.BillingWebhooksTotal.WithLabelValues("unknown_customer").Inc()
			h.logger.Warn("stripe invoice references unknown customer",
				"customerId", ev.CustomerID, "stripeEvent", string(stripeEvent.Type))
			c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
			return
		}
		metrics.BillingWebhooksTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "lookup_failed",
			"message": "Failed to load customer",
		})
		return
	}

	if err := h.events.Insert(ctx, ev); err != nil {
		metrics.BillingWebhooksTotal.WithLabelValues("error").Inc()
		h.logger.Error("failed to record invoice event",
			"customerId", ev.CustomerID, "type", string(ev.Type), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "insert_failed",
			"message": "Failed to record invoice event",
		})
		return
	}

	metrics.BillingWebhooksTotal.WithLabelValues("ok").Inc()
	metrics.EventsIngestedTotal.WithLabelValues(string(ev.Type)).Inc()
	if h.notifier != nil {
		h.notifier.UsageRecorded(ev)
	}

	h.logger.Info("recorded invoice event",
		"customerId", ev.CustomerID, "type", string(ev.Type))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// invoiceEvent maps a verified Stripe event to a usage event. Returns
// (nil, nil) for event types the scorer does not consume.
func invoiceEvent(stripeEvent stripe.Event) (*event.Event, error) {
	var typ event.Type
	switch string(stripeEvent.Type) {
	case "invoice.paid":
		typ = event.TypeInvoicePaid
	case "invoice.payment_failed":
		typ = event.TypeInvoiceLate
	default:
		return nil, nil
	}

	var inv stripe.Invoice
	if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}

	raw, ok := inv.Metadata[metadataCustomerKey]
	if !ok || raw == "" {
		return nil, fmt.Errorf("invoice %s has no %s metadata", inv.ID, metadataCustomerKey)
	}
	customerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || customerID <= 0 {
		return nil, fmt.Errorf("invoice %s has invalid %s %q", inv.ID, metadataCustomerKey, raw)
	}

	ts := time.Now().UTC()
	if stripeEvent.Created > 0 {
		ts = time.Unix(stripeEvent.Created, 0).UTC()
	}

	return &event.Event{
		CustomerID: customerID,
		Type:       typ,
		Timestamp:  ts,
	}, nil
}
