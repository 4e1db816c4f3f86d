package notification

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

const sender = `"Sneaker Store" <noreply@sneakerstore.com>`

type fakeTransport struct {
	m    sync.Mutex
	sent []Message
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg Message) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "<id-1@sneakerstore.com>", nil
}

func (f *fakeTransport) calls() int {
	f.m.Lock()
	defer f.m.Unlock()
	return len(f.sent)
}

type countingRecorder struct {
	counts map[string]int
}

func (c *countingRecorder) EmailSent(kind, result string) {
	c.counts[kind+"/"+result]++
}

func payload() Payload {
	return Payload{
		OrderNumber:     "ORD-1700000000000",
		CustomerName:    "Jane Doe",
		Email:           "jane@example.com",
		ProductName:     "Converse Chuck 70 Hi",
		Quantity:        2,
		TotalAmount:     decimal.NewFromInt(170),
		ShippingAddress: "1 Main St, Springfield, IL 62701",
	}
}

func TestSendConfirmation(t *testing.T) {
	transport := &fakeTransport{}
	rec := &countingRecorder{counts: map[string]int{}}
	g := NewGateway(transport, sender, WithRecorder(rec))

	res := g.SendConfirmation(context.Background(), payload())

	assert.Equal(t, Result{Success: true, MessageID: "<id-1@sneakerstore.com>"}, res)
	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, sender, msg.From)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Order Confirmation - #ORD-1700000000000", msg.Subject)
	assert.Contains(t, msg.HTML, "Dear Jane Doe,")
	assert.Contains(t, msg.HTML, "<strong>Quantity:</strong> 2")
	assert.Contains(t, msg.HTML, "$170.00")
	assert.Contains(t, msg.HTML, "1 Main St, Springfield, IL 62701")
	assert.Equal(t, 1, rec.counts["confirmation/sent"])
}

func TestSendDeclined(t *testing.T) {
	transport := &fakeTransport{}
	g := NewGateway(transport, sender)

	res := g.SendDeclined(context.Background(), payload())

	assert.True(t, res.Success)
	msg := transport.sent[0]
	assert.Equal(t, "Transaction Declined - Order #ORD-1700000000000", msg.Subject)
	assert.Contains(t, msg.HTML, "your recent transaction was declined")
	assert.Contains(t, msg.HTML, "<strong>Amount:</strong> $170.00")
	assert.NotContains(t, msg.HTML, "Quantity")
}

func TestSend_EscapesCustomerInput(t *testing.T) {
	transport := &fakeTransport{}
	g := NewGateway(transport, sender)

	p := payload()
	p.CustomerName = `<script>alert("x")</script>`
	g.SendConfirmation(context.Background(), p)

	html := transport.sent[0].HTML
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestSend_TransportFailureIsAResult(t *testing.T) {
	transport := &fakeTransport{err: errors.New("535 authentication failed")}
	rec := &countingRecorder{counts: map[string]int{}}
	g := NewGateway(transport, sender, WithRecorder(rec))

	res := g.SendConfirmation(context.Background(), payload())

	assert.False(t, res.Success)
	assert.Empty(t, res.MessageID)
	assert.Equal(t, "535 authentication failed", res.Error)
	assert.Equal(t, 1, rec.counts["confirmation/failed"])
}

func TestSend_UnknownKind(t *testing.T) {
	transport := &fakeTransport{}
	g := NewGateway(transport, sender)

	res := g.Send(context.Background(), Kind("shipped"), payload())

	assert.False(t, res.Success)
	assert.Zero(t, transport.calls())
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("declined")
	assert.True(t, ok)
	assert.Equal(t, KindDeclined, k)

	_, ok = ParseKind("refund")
	assert.False(t, ok)
}

func TestBreakerTransport_OpensAfterFailures(t *testing.T) {
	inner := &fakeTransport{err: errors.New("connection refused")}
	breaker := NewBreakerTransport(inner, circuitbreaker.Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	g := NewGateway(breaker, sender)

	g.SendConfirmation(context.Background(), payload())
	g.SendConfirmation(context.Background(), payload())
	res := g.SendConfirmation(context.Background(), payload())

	assert.False(t, res.Success)
	assert.Equal(t, circuitbreaker.ErrOpen.Error(), res.Error)
	assert.Equal(t, 2, inner.calls())
	assert.Equal(t, "open", breaker.State())
}

func TestBuildMsg(t *testing.T) {
	m, id, err := buildMsg(Message{
		From:    sender,
		To:      "jane@example.com",
		Subject: "Order Confirmation - #ORD-1",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^<[0-9a-f-]{36}@sneakerstore\.com>$`, id)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Order Confirmation - #ORD-1")
	assert.Contains(t, raw, "Message-ID: "+id)
	assert.Contains(t, raw, "jane@example.com")
	assert.Contains(t, raw, "text/html")
}

func TestBuildMsg_InvalidRecipient(t *testing.T) {
	_, _, err := buildMsg(Message{From: sender, To: "not an address", Subject: "s", HTML: "b"})
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "sneakerstore.com", senderDomain(sender))
	assert.Equal(t, "example.org", senderDomain("shop@example.org"))
	assert.Equal(t, "localhost", senderDomain("nobody"))
}
