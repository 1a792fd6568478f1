package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/auth"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/event"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/service"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/health"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/httputil"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/middleware"
)

const (
	testAccessSecret  = "access-secret-for-handler-tests-00"
	testRefreshSecret = "refresh-secret-for-handler-tests-0"
)

var errStoreDown = errors.New("connection refused")

// ============================================================================
// In-memory repositories
// ============================================================================

type memUserRepo struct {
	mu    sync.Mutex
	users []domain.User
	err   error
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	m.users = append(m.users, *user)
	return nil
}

func (m *memUserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *memUserRepo) GetByRefreshToken(_ context.Context, token string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.HasSession(token) })
}

func (m *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.User(nil), m.users...), nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.users {
		if m.users[i].ID != user.ID && m.users[i].Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	for i := range m.users {
		if m.users[i].ID == user.ID {
			m.users[i].Name = user.Name
			m.users[i].Email = user.Email
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memUserRepo) SetRefreshToken(_ context.Context, userID string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].RefreshToken = token
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memUserRepo) get(t *testing.T, id string) domain.User {
	t.Helper()
	u, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	return *u
}

type memProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products []domain.Product
	err      error
}

func (m *memProductRepo) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	p.ID = m.nextID
	m.products = append(m.products, *p)
	return nil
}

func (m *memProductRepo) GetForUser(_ context.Context, userID string, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memProductRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var matched []domain.Product
	for _, p := range m.products {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.Search != "" && !strings.Contains(p.Name, f.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if f.Offset >= total {
		return []domain.Product{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return matched[f.Offset:end], total, nil
}

func (m *memProductRepo) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.products {
		if m.products[i].ID == p.ID && m.products[i].UserID == p.UserID {
			m.products[i].Name = p.Name
			m.products[i].Price = p.Price
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memProductRepo) Delete(_ context.Context, userID string, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i, p := range m.products {
		if p.ID == id && p.UserID == userID {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ============================================================================
// Test server
// ============================================================================

type testServer struct {
	handler  http.Handler
	users    *memUserRepo
	products *memProductRepo
	tokens   *auth.TokenService
	registry *prometheus.Registry
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()

	users := &memUserRepo{}
	products := &memProductRepo{}
	tokens := auth.NewTokenService(testAccessSecret, testRefreshSecret, time.Minute, 24*time.Hour)
	logger := testLogger()
	producer := event.NopProducer()
	registry := prometheus.NewRegistry()

	cfg := RouterConfig{
		ServiceName: "test",
		CORS:        middleware.DefaultCORSConfig(),
		Registry:    registry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc := Services{
		Auth:     service.NewAuthService(users, tokens, producer, service.NewAuthMetrics(registry), logger),
		Users:    service.NewUserService(users, producer, logger),
		Products: service.NewProductService(products, producer, logger),
	}

	return &testServer{
		handler:  NewRouter(svc, health.NewHandler(), logger, cfg),
		users:    users,
		products: products,
		tokens:   tokens,
		registry: registry,
	}
}

// seedUser stores a user with a cheap password hash and no session.
func (s *testServer) seedUser(t *testing.T, name, email, password string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	require.NoError(t, s.users.Create(context.Background(), &u))
	return u
}

// session stores a fresh refresh token as the user's session and returns
// the cookie carrying it.
func (s *testServer) session(t *testing.T, u domain.User) *http.Cookie {
	t.Helper()
	token, err := s.tokens.IssueRefreshToken(u.Identity())
	require.NoError(t, err)
	require.NoError(t, s.users.SetRefreshToken(context.Background(), u.ID, &token))
	return &http.Cookie{Name: RefreshCookieName, Value: token}
}

// strayCookie is a correctly signed refresh token that is not stored as
// anyone's session.
func (s *testServer) strayCookie(t *testing.T, u domain.User) *http.Cookie {
	t.Helper()
	token, err := s.tokens.IssueRefreshToken(u.Identity())
	require.NoError(t, err)
	return &http.Cookie{Name: RefreshCookieName, Value: token}
}

// tamperedCookie alters the first signature character of c, so the token
// still parses but no longer verifies.
func tamperedCookie(c *http.Cookie) *http.Cookie {
	dot := strings.LastIndex(c.Value, ".")
	sig := []byte(c.Value[dot+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	return &http.Cookie{Name: c.Name, Value: c.Value[:dot+1] + string(sig)}
}

func (s *testServer) seedProduct(t *testing.T, owner domain.User, name string, price float64) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: price, UserID: owner.ID}
	require.NoError(t, s.products.Create(context.Background(), &p))
	return p
}

type requestOption func(*http.Request)

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (s *testServer) do(method, path, body string, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	resp := decodeJSON[httputil.Response](t, rec)
	require.NotNil(t, resp.Error, "expected error envelope")
	return resp.Error
}

func refreshCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == RefreshCookieName {
			return c
		}
	}
	return nil
}
