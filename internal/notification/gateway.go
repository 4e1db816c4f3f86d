// Package notification renders and sends the order emails.
package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindDeclined     Kind = "declined"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindConfirmation, KindDeclined:
		return Kind(s), true
	}
	return "", false
}

// Payload is the order data rendered into an email.
type Payload struct {
	OrderNumber     string          `json:"orderNumber"`
	CustomerName    string          `json:"customerName"`
	Email           string          `json:"email"`
	ProductName     string          `json:"productName"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress string          `json:"shippingAddress"`
}

// Result never carries a Go error; a failed send is Success=false with a message.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport delivers one rendered message and returns its message id.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Recorder observes send outcomes. result is "sent" or "failed".
type Recorder interface {
	EmailSent(kind, result string)
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"amount": money.Format}).
		ParseFS(templateFS, "templates/*.html"),
)

type Gateway struct {
	transport Transport
	from      string
	recorder  Recorder
}

type Option func(*Gateway)

func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

func NewGateway(transport Transport, from string, opts ...Option) *Gateway {
	g := &Gateway{transport: transport, from: from}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) SendConfirmation(ctx context.Context, p Payload) Result {
	return g.Send(ctx, KindConfirmation, p)
}

func (g *Gateway) SendDeclined(ctx context.Context, p Payload) Result {
	return g.Send(ctx, KindDeclined, p)
}

// Send makes a single delivery attempt.
func (g *Gateway) Send(ctx context.Context, kind Kind, p Payload) Result {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"email_type":   string(kind),
		"order_number": p.OrderNumber,
	})

	msg, err := g.render(kind, p)
	if err != nil {
		log.WithError(err).Error("render email failed")
		g.record(kind, "failed")
		return Result{Success: false, Error: err.Error()}
	}

	id, err := g.transport.Send(ctx, msg)
	if err != nil {
		log.WithError(err).Error("send email failed")
		g.record(kind, "failed")
		return Result{Success: false, Error: err.Error()}
	}

	log.WithField("message_id", id).Info("email sent")
	g.record(kind, "sent")
	return Result{Success: true, MessageID: id}
}

func (g *Gateway) render(kind Kind, p Payload) (Message, error) {
	var subject, name string
	switch kind {
	case KindConfirmation:
		subject = fmt.Sprintf("Order Confirmation - #%s", p.OrderNumber)
		name = "confirmation.html"
	case KindDeclined:
		subject = fmt.Sprintf("Transaction Declined - Order #%s", p.OrderNumber)
		name = "declined.html"
	default:
		return Message{}, fmt.Errorf("unknown email type %q", kind)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, p); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{From: g.from, To: p.Email, Subject: subject, HTML: body.String()}, nil
}

func (g *Gateway) record(kind Kind, result string) {
	if g.recorder != nil {
		g.recorder.EmailSent(string(kind), result)
	}
}
