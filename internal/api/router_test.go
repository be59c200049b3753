package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/core/service"
	"github.com/stockroom/inventory-api/internal/infrastructure/security"
)

// ── In-memory adapters ────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return nil, domain.ErrUserExists
	}
	stored := *u
	stored.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[u.Email] = stored
	return &stored, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

type memItems struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.Item
}

func (r *memItems) Create(_ context.Context, it *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *it
	stored.ID = fmt.Sprintf("item-%d", r.seq)
	r.items[stored.ID] = stored
	return &stored, nil
}

func (r *memItems) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

func (r *memItems) List(_ context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term := strings.ToLower(f.Search)
	out := []*domain.Item{}
	for _, it := range r.items {
		hay := strings.ToLower(it.Name + "\x00" + it.Description + "\x00" + it.Category)
		if term == "" || strings.Contains(hay, term) {
			it := it
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memItems) Update(_ context.Context, id string, u ports.ItemUpdate, at time.Time) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.Description != nil {
		it.Description = *u.Description
	}
	if u.Category != nil {
		it.Category = *u.Category
	}
	if u.Quantity != nil {
		it.Quantity = *u.Quantity
	}
	if u.Price != nil {
		it.Price = *u.Price
	}
	it.UpdatedAt = at
	r.items[id] = it
	return &it, nil
}

func (r *memItems) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

type memRevocations struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (m *memRevocations) Revoke(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id], nil
}

// memLimiter blocks a key after limit recorded failures.
type memLimiter struct {
	mu       sync.Mutex
	limit    int
	failures map[string]int
}

func (m *memLimiter) Blocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[key] >= m.limit, nil
}

func (m *memLimiter) RecordFailure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key]++
	return nil
}

func (m *memLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, publicRead bool, opts ...service.AuthOption) *testServer {
	t.Helper()

	tokens, err := security.NewTokenService("router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	opts = append([]service.AuthOption{service.WithRevocationStore(&memRevocations{ids: map[string]bool{}})}, opts...)
	authSvc := service.NewAuthService(
		&memUsers{users: map[string]domain.User{}},
		security.NewBcryptHasher(bcrypt.MinCost),
		tokens,
		zerolog.Nop(),
		opts...,
	)
	itemSvc := service.NewItemService(&memItems{items: map[string]domain.Item{}}, zerolog.Nop())

	e := NewRouter(Dependencies{
		AuthService:     authSvc,
		ItemService:     itemSvc,
		Logger:          zerolog.Nop(),
		ItemsPublicRead: publicRead,
		// Requests arrive from loopback, so tests pick the client IP with
		// X-Forwarded-For.
		TrustProxyHeaders: true,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) (int, string, *http.Response) {
	s.t.Helper()
	return s.send(method, path, body, cookie, nil)
}

// doFrom sends the request as if forwarded on behalf of clientIP.
func (s *testServer) doFrom(clientIP, method, path, body string) (int, string) {
	s.t.Helper()
	code, out, _ := s.send(method, path, body, nil, http.Header{"X-Forwarded-For": {clientIP}})
	return code, out
}

func (s *testServer) send(method, path, body string, cookie *http.Cookie, header http.Header) (int, string, *http.Response) {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, r)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.srv.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b), resp
}

func (s *testServer) register(email, role string, actor *http.Cookie) *http.Cookie {
	s.t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"pw-123456","role":%q}`, email, role)
	code, out, resp := s.do(http.MethodPost, "/auth/register", body, actor)
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201, got %d %s", email, code, out)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			return ck
		}
	}
	s.t.Fatalf("register %s: no session cookie", email)
	return nil
}

func itemID(t *testing.T, body string) string {
	t.Helper()
	var resp struct {
		Item struct {
			ID string `json:"_id"`
		} `json:"item"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil || resp.Item.ID == "" {
		t.Fatalf("no item id in %s (%v)", body, err)
	}
	return resp.Item.ID
}

const widgetJSON = `{"name":"Widget","description":"Blue Widget housing","category":"Parts","quantity":3,"price":1.5}`

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRouter_ViewerCanReadButNotWrite(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.register("viewer@example.com", "", nil)

	if code, body, _ := s.do(http.MethodPost, "/items", widgetJSON, viewer); code != http.StatusForbidden {
		t.Fatalf("viewer POST /items: expected 403, got %d %s", code, body)
	}
	if code, body, _ := s.do(http.MethodGet, "/items", "", viewer); code != http.StatusOK {
		t.Fatalf("viewer GET /items: expected 200, got %d %s", code, body)
	}
}

func TestRouter_ItemsRequireSession(t *testing.T) {
	s := newTestServer(t, false)

	code, body, _ := s.do(http.MethodGet, "/items", "", nil)
	if code != http.StatusUnauthorized || !strings.Contains(body, "authentication required") {
		t.Fatalf("expected 401 authentication required, got %d %s", code, body)
	}

	forged := &http.Cookie{Name: middleware.SessionCookieName, Value: "not.a.jwt"}
	code, body, _ = s.do(http.MethodGet, "/items", "", forged)
	if code != http.StatusUnauthorized || !strings.Contains(body, "invalid or expired token") {
		t.Fatalf("expected 401 invalid or expired token, got %d %s", code, body)
	}
}

func TestRouter_PublicRead(t *testing.T) {
	s := newTestServer(t, true)

	if code, body, _ := s.do(http.MethodGet, "/items", "", nil); code != http.StatusOK {
		t.Fatalf("expected anonymous read allowed, got %d %s", code, body)
	}
	if code, _, _ := s.do(http.MethodPost, "/items", widgetJSON, nil); code != http.StatusUnauthorized {
		t.Fatalf("writes still need a session, got %d", code)
	}
}

func TestRouter_AdminSelfRegistrationDenied(t *testing.T) {
	s := newTestServer(t, false)

	code, body, _ := s.do(http.MethodPost, "/auth/register", `{"email":"root@example.com","password":"pw","role":"admin"}`, nil)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", code, body)
	}

	viewer := s.register("v@example.com", "viewer", nil)
	code, _, _ = s.do(http.MethodPost, "/auth/register", `{"email":"root@example.com","password":"pw","role":"admin"}`, viewer)
	if code != http.StatusForbidden {
		t.Fatalf("viewer cannot mint admins, got %d", code)
	}
}

func TestRouter_AdminSelfRegistrationFlag(t *testing.T) {
	s := newTestServer(t, false, service.WithAdminSelfRegistration(true))
	first := s.register("first@example.com", "admin", nil)

	code, body, _ := s.do(http.MethodGet, "/auth/me", "", first)
	if code != http.StatusOK || !strings.Contains(body, `"role":"admin"`) {
		t.Fatalf("expected admin identity, got %d %s", code, body)
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, false)
	s.register("alice@example.com", "", nil)

	wrongCode, wrongBody, _ := s.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nope"}`, nil)
	unknownCode, unknownBody, _ := s.do(http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"nope"}`, nil)

	if wrongCode != http.StatusUnauthorized || unknownCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongCode, unknownCode)
	}
	if wrongBody != unknownBody {
		t.Fatalf("bodies differ:\n wrong password: %s\n unknown email:  %s", wrongBody, unknownBody)
	}

	code, _, _ := s.do(http.MethodPost, "/auth/login", `{"email":"  ALICE@example.com ","password":"pw-123456"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("login with normalised email: expected 200, got %d", code)
	}
}

func TestRouter_FailedLoginsFromAnotherClientDoNotLockOutOwner(t *testing.T) {
	limiter := &memLimiter{limit: 3, failures: map[string]int{}}
	s := newTestServer(t, false, service.WithLoginLimiter(limiter))
	s.register("victim@example.com", "", nil)

	const (
		attackerIP = "198.51.100.9"
		ownerIP    = "203.0.113.7"
		wrong      = `{"email":"victim@example.com","password":"guess"}`
		right      = `{"email":"victim@example.com","password":"pw-123456"}`
	)

	for i := 0; i < 3; i++ {
		if code, body := s.doFrom(attackerIP, http.MethodPost, "/auth/login", wrong); code != http.StatusUnauthorized {
			t.Fatalf("attacker attempt %d: expected 401, got %d %s", i, code, body)
		}
	}
	if code, body := s.doFrom(attackerIP, http.MethodPost, "/auth/login", right); code != http.StatusTooManyRequests {
		t.Fatalf("attacker must be throttled, got %d %s", code, body)
	}

	for i := 0; i < 5; i++ {
		if code, body := s.doFrom(ownerIP, http.MethodPost, "/auth/login", right); code != http.StatusOK {
			t.Fatalf("owner login %d: expected 200, got %d %s", i, code, body)
		}
	}
}

func TestRouter_SuccessfulLoginClearsFailures(t *testing.T) {
	limiter := &memLimiter{limit: 3, failures: map[string]int{}}
	s := newTestServer(t, false, service.WithLoginLimiter(limiter))
	s.register("typo@example.com", "", nil)

	const ip = "203.0.113.20"
	for round := 0; round < 3; round++ {
		for i := 0; i < 2; i++ {
			s.doFrom(ip, http.MethodPost, "/auth/login", `{"email":"typo@example.com","password":"oops"}`)
		}
		if code, body := s.doFrom(ip, http.MethodPost, "/auth/login", `{"email":"typo@example.com","password":"pw-123456"}`); code != http.StatusOK {
			t.Fatalf("round %d: expected 200, got %d %s", round, code, body)
		}
	}
}

func TestRouter_RegisterRoleIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.register("mixed@example.com", "Viewer", nil)

	code, body, _ := s.do(http.MethodGet, "/auth/me", "", viewer)
	if code != http.StatusOK || !strings.Contains(body, `"role":"viewer"`) {
		t.Fatalf("expected viewer identity, got %d %s", code, body)
	}

	code, body, _ = s.do(http.MethodPost, "/auth/register", `{"email":"bad@example.com","password":"pw","role":"owner"}`, nil)
	if code != http.StatusBadRequest || !strings.Contains(body, "role must be one of: admin, viewer") {
		t.Fatalf("expected 400 for unknown role, got %d %s", code, body)
	}
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	s := newTestServer(t, false)
	s.register("dup@example.com", "", nil)

	code, body, _ := s.do(http.MethodPost, "/auth/register", `{"email":"dup@example.com","password":"other"}`, nil)
	if code != http.StatusBadRequest || !strings.Contains(body, "user already exists") {
		t.Fatalf("expected 400 user already exists, got %d %s", code, body)
	}
}

func TestRouter_ItemLifecycle(t *testing.T) {
	s := newTestServer(t, false, service.WithAdminSelfRegistration(true))
	admin := s.register("admin@example.com", "admin", nil)

	code, body, _ := s.do(http.MethodPost, "/items", widgetJSON, admin)
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", code, body)
	}
	id := itemID(t, body)

	if code, _, _ := s.do(http.MethodPost, "/items", `{"name":"Bolt","description":"M4","category":"Hardware","quantity":1,"price":0.1}`, admin); code != http.StatusCreated {
		t.Fatalf("create bolt: got %d", code)
	}

	code, body, _ = s.do(http.MethodGet, "/items?search=widget", "", admin)
	if code != http.StatusOK || !strings.Contains(body, id) || strings.Contains(body, "Bolt") {
		t.Fatalf("search: unexpected %d %s", code, body)
	}

	code, body, _ = s.do(http.MethodPut, "/items", fmt.Sprintf(`{"id":%q,"quantity":7}`, id), admin)
	if code != http.StatusOK || !strings.Contains(body, `"quantity":7`) || !strings.Contains(body, `"name":"Widget"`) {
		t.Fatalf("update: unexpected %d %s", code, body)
	}

	code, body, _ = s.do(http.MethodPut, "/items", fmt.Sprintf(`{"id":%q,"description":"Red housing","category":"Spares"}`, id), admin)
	if code != http.StatusOK ||
		!strings.Contains(body, `"description":"Red housing"`) ||
		!strings.Contains(body, `"category":"Spares"`) ||
		!strings.Contains(body, `"quantity":7`) {
		t.Fatalf("update description and category: unexpected %d %s", code, body)
	}
	if code, body, _ := s.do(http.MethodGet, "/items?search=spares", "", admin); code != http.StatusOK || !strings.Contains(body, id) {
		t.Fatalf("search by updated category: unexpected %d %s", code, body)
	}

	if code, body, _ := s.do(http.MethodPut, "/items", `{"id":"item-999","quantity":1}`, admin); code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d %s", code, body)
	}

	if code, _, _ := s.do(http.MethodDelete, "/items?id="+id, "", admin); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if code, _, _ := s.do(http.MethodGet, "/items/"+id, "", admin); code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", code)
	}
	if code, _, _ := s.do(http.MethodDelete, "/items?id="+id, "", admin); code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", code)
	}
	if code, _, _ := s.do(http.MethodDelete, "/items", "", admin); code != http.StatusBadRequest {
		t.Fatalf("delete without id: expected 400, got %d", code)
	}
}

func TestRouter_LogoutRevokesSession(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.register("bye@example.com", "", nil)

	code, _, resp := s.do(http.MethodPost, "/auth/logout", "", viewer)
	if code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}
	cleared := false
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout must clear the cookie")
	}

	if code, _, _ := s.do(http.MethodGet, "/items", "", viewer); code != http.StatusUnauthorized {
		t.Fatalf("revoked token must be rejected, got %d", code)
	}
	if code, _, _ := s.do(http.MethodPost, "/auth/logout", "", nil); code != http.StatusOK {
		t.Fatalf("anonymous logout is a no-op, got %d", code)
	}
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, false)
	if code, body, _ := s.do(http.MethodGet, "/health", "", nil); code != http.StatusOK || !strings.Contains(body, "ok") {
		t.Fatalf("health: unexpected %d %s", code, body)
	}
}
