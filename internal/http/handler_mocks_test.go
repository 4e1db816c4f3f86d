package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	cartdomain "github.com/fjod/go_cart/storefront/internal/cart/domain"
	cartservice "github.com/fjod/go_cart/storefront/internal/cart/service"
	catalogdomain "github.com/fjod/go_cart/storefront/internal/catalog/domain"
	checkoutdomain "github.com/fjod/go_cart/storefront/internal/checkout/domain"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type catalogMock struct {
	page      *catalogdomain.Page
	product   *catalogdomain.Product
	err       error
	gotPage   int
	gotLimit  int
	gotID     string
	gotFields catalogdomain.ProductFields
}

func (m *catalogMock) ListProducts(_ context.Context, page, limit int) (*catalogdomain.Page, error) {
	m.gotPage, m.gotLimit = page, limit
	return m.page, m.err
}

func (m *catalogMock) GetProduct(_ context.Context, id string) (*catalogdomain.Product, error) {
	m.gotID = id
	return m.product, m.err
}

func (m *catalogMock) CreateProduct(_ context.Context, f catalogdomain.ProductFields) (*catalogdomain.Product, error) {
	m.gotFields = f
	return m.product, m.err
}

func (m *catalogMock) UpdateProduct(_ context.Context, id string, f catalogdomain.ProductFields) (*catalogdomain.Product, error) {
	m.gotID, m.gotFields = id, f
	return m.product, m.err
}

func (m *catalogMock) DeleteProduct(_ context.Context, id string) error {
	m.gotID = id
	return m.err
}

type cartMock struct {
	cart       *cartdomain.Cart
	err        error
	gotSession string
	gotInput   cartservice.AddItemInput
	cleared    int
}

func (m *cartMock) GetCart(_ context.Context, sessionID string) (*cartdomain.Cart, error) {
	m.gotSession = sessionID
	return m.cart, m.err
}

func (m *cartMock) AddItem(_ context.Context, sessionID string, in cartservice.AddItemInput) (*cartdomain.Cart, error) {
	m.gotSession, m.gotInput = sessionID, in
	return m.cart, m.err
}

func (m *cartMock) ClearCart(_ context.Context, sessionID string) error {
	m.gotSession = sessionID
	m.cleared++
	return m.err
}

type mailerMock struct {
	result notification.Result
	calls  int
	kind   notification.Kind
	data   notification.Payload
}

func (m *mailerMock) Send(_ context.Context, kind notification.Kind, p notification.Payload) notification.Result {
	m.calls++
	m.kind, m.data = kind, p
	return m.result
}

type checkoutMock struct {
	result *checkoutdomain.Result
	err    error
	got    checkoutdomain.Request
}

func (m *checkoutMock) Checkout(_ context.Context, req checkoutdomain.Request) (*checkoutdomain.Result, error) {
	m.got = req
	return m.result, m.err
}

type sessionMock struct {
	mu    sync.RWMutex
	known map[string]session.Session
	err   error
}

func (m *sessionMock) Issue(context.Context) (session.Session, error) {
	if m.err != nil {
		return session.Session{}, m.err
	}
	s := session.Session{ID: "s-new", IssuedAt: time.Unix(0, 0).UTC(), ExpiresAt: time.Unix(3600, 0).UTC()}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.known == nil {
		m.known = map[string]session.Session{}
	}
	m.known[s.ID] = s
	return s, nil
}

func (m *sessionMock) Lookup(_ context.Context, id string) (session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.known[id]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

type observerMock struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (o *observerMock) ObserveRequest(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.status = append(o.status, status)
}

type fixture struct {
	catalog  *catalogMock
	carts    *cartMock
	mailer   *mailerMock
	checkout *checkoutMock
	sessions *sessionMock
	observer *observerMock
}

func newFixture() *fixture {
	return &fixture{
		catalog:  &catalogMock{},
		carts:    &cartMock{},
		mailer:   &mailerMock{},
		checkout: &checkoutMock{},
		sessions: &sessionMock{},
		observer: &observerMock{},
	}
}

func (f *fixture) router(sessionRequired bool) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(RouterConfig{
		Logger:          log,
		AllowedOrigins:  []string{"http://localhost:5173"},
		RequestTimeout:  5 * time.Second,
		SessionRequired: sessionRequired,
		Observer:        f.observer,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics")
		}),
	}, Services{
		Catalog:  f.catalog,
		Carts:    f.carts,
		Mailer:   f.mailer,
		Checkout: f.checkout,
		Sessions: f.sessions,
	})
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	return f.doWith(false, method, target, body)
}

func (f *fixture) doWith(sessionRequired bool, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router(sessionRequired).ServeHTTP(rec, req)
	return rec
}

var errStoreDown = apperr.Transport("find products", io.ErrUnexpectedEOF)
