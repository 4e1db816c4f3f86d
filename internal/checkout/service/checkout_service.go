package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/checkout/domain"
	"github.com/fjod/go_cart/storefront/internal/checkout/policy"
	"github.com/fjod/go_cart/storefront/internal/checkout/publisher"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	expiryLayout = "2006-01"

	defaultPublishTimeout = 2 * time.Second
)

type Notifier interface {
	SendConfirmation(ctx context.Context, p notification.Payload) notification.Result
	SendDeclined(ctx context.Context, p notification.Payload) notification.Result
}

// Recorder observes checkout outcomes.
type Recorder interface {
	CheckoutCompleted(outcome string)
}

type CheckoutService struct {
	policy    policy.Policy
	notifier  Notifier
	publisher publisher.Publisher
	recorder  Recorder
	now       func() time.Time

	publishTimeout time.Duration
}

type Option func(*CheckoutService)

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutService) { s.now = now }
}

func WithPublisher(p publisher.Publisher) Option {
	return func(s *CheckoutService) { s.publisher = p }
}

// WithPublishTimeout bounds how long an approved checkout waits for its event.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *CheckoutService) { s.publishTimeout = d }
}

func WithRecorder(r Recorder) Option {
	return func(s *CheckoutService) { s.recorder = r }
}

func NewCheckoutService(p policy.Policy, notifier Notifier, opts ...Option) *CheckoutService {
	s := &CheckoutService{
		policy:    p,
		notifier:  notifier,
		publisher: publisher.Nop{},
		now:       time.Now,

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout validates the form, asks the policy for an outcome and sends the
// matching email. Email and event failures are logged, never returned.
func (s *CheckoutService) Checkout(ctx context.Context, req domain.Request) (*domain.Result, error) {
	normalize(&req)
	now := s.now()
	if err := validate(req, now); err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber: fmt.Sprintf("ORD-%d", now.UnixMilli()),
		Customer:    req.Customer,
		Item:        req.Item,
		Total:       money.LineTotal(req.Item.Price, req.Item.Quantity),
		PlacedAt:    now.UTC(),
	}
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"session_id":   req.SessionID,
	})

	outcome := s.policy.Decide(ctx, order)
	log = log.WithField("outcome", outcome.String())
	s.record(outcome)

	switch outcome {
	case domain.OutcomeApproved:
		if res := s.notifier.SendConfirmation(ctx, payloadFor(order)); !res.Success {
			log.WithField("error", res.Error).Warn("confirmation email failed")
		}
		s.publish(ctx, log, req.SessionID, order)
		log.Info("checkout approved")
		return &domain.Result{Outcome: outcome, Navigate: domain.NavigateConfirmation, Order: order}, nil

	case domain.OutcomeDeclined:
		if res := s.notifier.SendDeclined(ctx, payloadFor(order)); !res.Success {
			log.WithField("error", res.Error).Warn("declined email failed")
		}
		log.Info("checkout declined")
		return &domain.Result{Outcome: outcome, Alert: domain.AlertDeclined}, nil

	default:
		log.Warn("payment processing error")
		return &domain.Result{Outcome: domain.OutcomeError, Alert: domain.AlertError}, nil
	}
}

func (s *CheckoutService) publish(ctx context.Context, log *logrus.Entry, sessionID string, order *domain.Order) {
	// The event still goes out if the client hangs up, but never holds the response long.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	err := s.publisher.PublishCheckoutCompleted(pubCtx, events.CheckoutCompleted{
		OrderNumber: order.OrderNumber,
		SessionID:   sessionID,
		Email:       order.Customer.Email,
		ProductID:   order.Item.ProductID,
		Variant:     order.Item.Variant,
		Quantity:    order.Item.Quantity,
		TotalAmount: order.Total,
		PlacedAt:    order.PlacedAt,
	})
	if err != nil {
		log.WithError(err).Error("publish checkout event failed")
	}
}

func (s *CheckoutService) record(outcome domain.Outcome) {
	if s.recorder != nil {
		s.recorder.CheckoutCompleted(outcome.String())
	}
}

func payloadFor(order *domain.Order) notification.Payload {
	return notification.Payload{
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.Customer.FullName,
		Email:           order.Customer.Email,
		ProductName:     order.Item.Name,
		Quantity:        order.Item.Quantity,
		TotalAmount:     order.Total,
		ShippingAddress: order.Customer.ShippingAddress(),
	}
}

func normalize(req *domain.Request) {
	trim := func(s *string) { *s = strings.TrimSpace(*s) }
	for _, f := range []*string{
		&req.SessionID,
		&req.Customer.FullName, &req.Customer.Email, &req.Customer.Address,
		&req.Customer.City, &req.Customer.State, &req.Customer.ZipCode,
		&req.Payment.ExpiryDate, &req.Payment.CVV,
		&req.Item.ProductID, &req.Item.Name, &req.Item.Variant,
	} {
		trim(f)
	}
	req.Payment.CardNumber = strings.NewReplacer(" ", "", "-", "").Replace(req.Payment.CardNumber)
}

func validate(req domain.Request, now time.Time) error {
	v := apperr.NewValidationError()
	validation.Into(v, req)

	if req.Payment.ExpiryDate != "" {
		expiry, err := time.Parse(expiryLayout, req.Payment.ExpiryDate)
		switch {
		case err != nil:
			v.Add("payment.expiryDate", "must be in YYYY-MM format")
		case !expiry.After(monthStart(now)):
			v.Add("payment.expiryDate", "must be a future month")
		}
	}
	return v.OrNil()
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
