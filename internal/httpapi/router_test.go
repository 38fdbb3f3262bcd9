package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
	"marketserver/internal/service"
)

// memBackend is an in-memory stand-in for the postgres stores, enough to
// drive the full router in handler tests.
type memBackend struct {
	mu sync.Mutex

	now func() time.Time

	users     map[string]domain.UserWithPassword
	customers map[string]domain.CustomerWithPassword
	sellers   map[string]domain.SellerWithPassword
	products  map[string]domain.Product
	carts     map[string]map[string]int

	attempts map[string]domain.AttemptRecord

	nextID int
}

func newMemBackend() *memBackend {
	return &memBackend{
		now:       time.Now,
		users:     map[string]domain.UserWithPassword{},
		customers: map[string]domain.CustomerWithPassword{},
		sellers:   map[string]domain.SellerWithPassword{},
		products:  map[string]domain.Product{},
		carts:     map[string]map[string]int{},
		attempts:  map[string]domain.AttemptRecord{},
	}
}

func (b *memBackend) newID() string {
	b.nextID++
	return fmt.Sprintf("id-%d", b.nextID)
}

func (b *memBackend) CreateUser(_ context.Context, name, email, passwordHash string) (domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == email {
			return domain.User{}, domain.ErrEmailTaken
		}
	}
	u := domain.UserWithPassword{
		User:         domain.User{ID: b.newID(), Name: name, Email: email, CreatedAt: b.now(), UpdatedAt: b.now()},
		PasswordHash: passwordHash,
	}
	b.users[u.ID] = u
	return u.User, nil
}

func (b *memBackend) ListUsers(_ context.Context, f domain.ListFilter) ([]domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.User, 0, len(b.users))
	for _, u := range b.users {
		if f.Search != "" && f.SearchField == "name" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = nil
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (b *memBackend) CountUsers(_ context.Context, f domain.ListFilter) (int, error) {
	all, _ := b.ListUsers(context.Background(), domain.ListFilter{SearchField: f.SearchField, Search: f.Search})
	return len(all), nil
}

func (b *memBackend) GetUserByID(_ context.Context, id string) (domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u.User, nil
}

func (b *memBackend) GetUserByEmail(_ context.Context, email string) (domain.UserWithPassword, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.UserWithPassword{}, domain.ErrNotFound
}

func (b *memBackend) UpdateUser(_ context.Context, id, name, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Name, u.Email, u.UpdatedAt = name, email, b.now()
	b.users[id] = u
	return nil
}

func (b *memBackend) UserPasswordHash(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return u.PasswordHash, nil
}

func (b *memBackend) SetUserPasswordHash(_ context.Context, id, passwordHash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	b.users[id] = u
	return nil
}

func (b *memBackend) DeleteUser(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.users, id)
	return nil
}

func (b *memBackend) CreateCustomer(_ context.Context, name, email, passwordHash string) (domain.Customer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.customers {
		if c.Email == email {
			return domain.Customer{}, domain.ErrEmailTaken
		}
	}
	c := domain.CustomerWithPassword{
		Customer:     domain.Customer{ID: b.newID(), Name: name, Email: email, CreatedAt: b.now(), UpdatedAt: b.now()},
		PasswordHash: passwordHash,
	}
	b.customers[c.ID] = c
	return c.Customer, nil
}

func (b *memBackend) ListCustomers(_ context.Context, _ domain.ListFilter) ([]domain.Customer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Customer, 0, len(b.customers))
	for _, c := range b.customers {
		out = append(out, c.Customer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBackend) GetCustomerByID(_ context.Context, id string) (domain.Customer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrNotFound
	}
	return c.Customer, nil
}

func (b *memBackend) GetCustomerByEmail(_ context.Context, email string) (domain.CustomerWithPassword, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.CustomerWithPassword{}, domain.ErrNotFound
}

func (b *memBackend) UpdateCustomer(_ context.Context, id, name, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Name, c.Email, c.UpdatedAt = name, email, b.now()
	b.customers[id] = c
	return nil
}

func (b *memBackend) CustomerPasswordHash(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return c.PasswordHash, nil
}

func (b *memBackend) SetCustomerPasswordHash(_ context.Context, id, passwordHash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.PasswordHash = passwordHash
	b.customers[id] = c
	return nil
}

func (b *memBackend) DeleteCustomer(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.customers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.customers, id)
	return nil
}

func (b *memBackend) AddCartItem(_ context.Context, customerID, productID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.products[productID]; !ok {
		return domain.ErrNotFound
	}
	cart := b.carts[customerID]
	if cart == nil {
		cart = map[string]int{}
		b.carts[customerID] = cart
	}
	cart[productID] += quantity
	return nil
}

func (b *memBackend) RemoveCartItem(_ context.Context, customerID, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts[customerID], productID)
	return nil
}

func (b *memBackend) CartItems(_ context.Context, customerID string) ([]domain.CartItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.CartItem
	for pid, qty := range b.carts[customerID] {
		p := b.products[pid]
		out = append(out, domain.CartItem{ProductID: pid, Name: p.Name, Price: p.Price, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (b *memBackend) TopUpWallet(_ context.Context, id string, amount int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	c.Wallet += amount
	b.customers[id] = c
	return c.Wallet, nil
}

func (b *memBackend) PurchaseCart(_ context.Context, customerID string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[customerID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	cart := b.carts[customerID]
	if len(cart) == 0 {
		return 0, domain.ErrCartEmpty
	}
	var total int64
	for pid, qty := range cart {
		p := b.products[pid]
		if p.Stock < qty {
			return 0, domain.ErrInsufficientStock
		}
		total += p.Price * int64(qty)
	}
	if c.Wallet < total {
		return 0, domain.ErrInsufficientFunds
	}
	for pid, qty := range cart {
		p := b.products[pid]
		p.Stock -= qty
		b.products[pid] = p
	}
	c.Wallet -= total
	b.customers[customerID] = c
	b.carts[customerID] = map[string]int{}
	return total, nil
}

func (b *memBackend) CreateSeller(_ context.Context, name, email, passwordHash string) (domain.Seller, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sellers {
		if s.Email == email {
			return domain.Seller{}, domain.ErrEmailTaken
		}
	}
	s := domain.SellerWithPassword{
		Seller:       domain.Seller{ID: b.newID(), Name: name, Email: email, CreatedAt: b.now(), UpdatedAt: b.now()},
		PasswordHash: passwordHash,
	}
	b.sellers[s.ID] = s
	return s.Seller, nil
}

func (b *memBackend) ListSellers(_ context.Context, _ domain.ListFilter) ([]domain.Seller, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Seller, 0, len(b.sellers))
	for _, s := range b.sellers {
		out = append(out, s.Seller)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBackend) GetSellerByID(_ context.Context, id string) (domain.Seller, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sellers[id]
	if !ok {
		return domain.Seller{}, domain.ErrNotFound
	}
	return s.Seller, nil
}

func (b *memBackend) GetSellerByEmail(_ context.Context, email string) (domain.SellerWithPassword, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sellers {
		if s.Email == email {
			return s, nil
		}
	}
	return domain.SellerWithPassword{}, domain.ErrNotFound
}

func (b *memBackend) UpdateSeller(_ context.Context, id, name, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sellers[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Name, s.Email, s.UpdatedAt = name, email, b.now()
	b.sellers[id] = s
	return nil
}

func (b *memBackend) SellerPasswordHash(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sellers[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return s.PasswordHash, nil
}

func (b *memBackend) SetSellerPasswordHash(_ context.Context, id, passwordHash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sellers[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.PasswordHash = passwordHash
	b.sellers[id] = s
	return nil
}

func (b *memBackend) DeleteSeller(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sellers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.sellers, id)
	return nil
}

func (b *memBackend) CreateProduct(_ context.Context, sellerEmail, name string, price int64, stock int) (domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := domain.Product{ID: b.newID(), SellerEmail: sellerEmail, Name: name, Price: price, Stock: stock, CreatedAt: b.now(), UpdatedAt: b.now()}
	b.products[p.ID] = p
	return p, nil
}

func (b *memBackend) ListProducts(_ context.Context) ([]domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBackend) GetProductByID(_ context.Context, id string) (domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (b *memBackend) UpdateProduct(_ context.Context, id, sellerEmail, name string, price int64, stock int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok || p.SellerEmail != sellerEmail {
		return domain.ErrNotFound
	}
	p.Name, p.Price, p.Stock, p.UpdatedAt = name, price, stock, b.now()
	b.products[id] = p
	return nil
}

func (b *memBackend) DeleteProduct(_ context.Context, id, sellerEmail string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok || p.SellerEmail != sellerEmail {
		return domain.ErrNotFound
	}
	delete(b.products, id)
	return nil
}

// ledger keyed by (kind, email), matching the database table.
type memAttemptLedger struct {
	backend *memBackend
	kind    domain.AccountKind
}

func (l memAttemptLedger) key(email string) string {
	return string(l.kind) + "|" + email
}

func (l memAttemptLedger) AttemptCount(_ context.Context, email string) (int, error) {
	l.backend.mu.Lock()
	defer l.backend.mu.Unlock()
	return l.backend.attempts[l.key(email)].AttemptCount, nil
}

func (l memAttemptLedger) LastAttemptTime(_ context.Context, email string) (time.Time, error) {
	l.backend.mu.Lock()
	defer l.backend.mu.Unlock()
	return l.backend.attempts[l.key(email)].LastAttemptAt, nil
}

func (l memAttemptLedger) RecordAttempt(_ context.Context, email string, count int, at time.Time) error {
	l.backend.mu.Lock()
	defer l.backend.mu.Unlock()
	l.backend.attempts[l.key(email)] = domain.AttemptRecord{Email: email, AttemptCount: count, LastAttemptAt: at}
	return nil
}

func (l memAttemptLedger) IncrementAttempt(_ context.Context, email string, at time.Time) (int, error) {
	l.backend.mu.Lock()
	defer l.backend.mu.Unlock()
	rec := l.backend.attempts[l.key(email)]
	rec.Email = email
	rec.AttemptCount++
	rec.LastAttemptAt = at
	l.backend.attempts[l.key(email)] = rec
	return rec.AttemptCount, nil
}

type testEnv struct {
	backend *memBackend
	tokens  *auth.TokenIssuer
	handler http.Handler
}

func newTestEnv(now func() time.Time) *testEnv {
	backend := newMemBackend()
	if now != nil {
		backend.now = now
	}

	tokens := &auth.TokenIssuer{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour, Now: now}
	cfg := service.LoginConfig{Now: now}

	customersSvc := &service.CustomersService{Store: backend, Products: backend}
	handler := NewRouter(RouterOpts{
		Tokens:        tokens,
		UserLogin:     service.NewUserLoginService(backend, memAttemptLedger{backend: backend, kind: domain.KindUser}, tokens, cfg),
		CustomerLogin: service.NewCustomerLoginService(backend, memAttemptLedger{backend: backend, kind: domain.KindCustomer}, tokens, cfg),
		SellerLogin:   service.NewSellerLoginService(backend, memAttemptLedger{backend: backend, kind: domain.KindSeller}, tokens, cfg),
		Users:         &service.UsersService{Store: backend},
		Customers:     customersSvc,
		Sellers:       &service.SellersService{Store: backend},
		Products:      &service.ProductsService{Store: backend, Sellers: backend},
	})

	return &testEnv{backend: backend, tokens: tokens, handler: handler}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestPathParametersReachHandlers(t *testing.T) {
	env := newTestEnv(nil)
	id := seedCustomer(t, env, "Ada", "ada@example.com", "correct-horse")
	tok := tokenFor(t, env, "ada@example.com", id, domain.KindCustomer)

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got customerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != id {
		t.Fatalf("id = %q, want %q", got.ID, id)
	}

	// Unknown /v1 paths still get the JSON 404.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
