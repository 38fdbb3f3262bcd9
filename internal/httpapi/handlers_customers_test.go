package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"marketserver/internal/domain"
)

func TestCartFlow(t *testing.T) {
	env := newTestEnv(nil)
	cid := seedCustomer(t, env, "Ada", "ada@example.com", "custpass123")
	seedSeller(t, env, "Shop", "shop@example.com", "sellerpass1")
	p, err := env.backend.CreateProduct(context.Background(), "shop@example.com", "Widget", 300, 10)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	tok := tokenFor(t, env, "ada@example.com", cid, domain.KindCustomer)
	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+tok)
		return req
	}

	rec := env.do(authed(jsonReq(http.MethodPut, "/v1/customers/"+cid+"/cart", `{"product_id":"`+p.ID+`","quantity":2}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add to cart status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(authed(jsonReq(http.MethodGet, "/v1/customers/"+cid+"/cart", "")))
	if rec.Code != http.StatusOK {
		t.Fatalf("cart status = %d", rec.Code)
	}
	var items []cartItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != p.ID || items[0].Quantity != 2 {
		t.Fatalf("items = %+v", items)
	}

	rec = env.do(authed(jsonReq(http.MethodPut, "/v1/customers/"+cid+"/top-up", `{"amount":1000}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("top-up status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var wallet map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &wallet); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wallet["wallet"] != 1000 {
		t.Fatalf("wallet = %d, want 1000", wallet["wallet"])
	}

	rec = env.do(authed(jsonReq(http.MethodPost, "/v1/customers/"+cid+"/purchase", "")))
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var total map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &total); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if total["total"] != 600 {
		t.Fatalf("total = %d, want 600", total["total"])
	}

	// Cart is cleared and stock decremented.
	rec = env.do(authed(jsonReq(http.MethodGet, "/v1/customers/"+cid+"/cart", "")))
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("cart not cleared: %+v", items)
	}
	got, err := env.backend.GetProductByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.Stock != 8 {
		t.Fatalf("stock = %d, want 8", got.Stock)
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	env := newTestEnv(nil)
	cid := seedCustomer(t, env, "Ada", "ada@example.com", "custpass123")
	p, err := env.backend.CreateProduct(context.Background(), "shop@example.com", "Widget", 5000, 10)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := env.backend.AddCartItem(context.Background(), cid, p.ID, 1); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	tok := tokenFor(t, env, "ada@example.com", cid, domain.KindCustomer)
	req := jsonReq(http.MethodPost, "/v1/customers/"+cid+"/purchase", "")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPurchaseEmptyCart(t *testing.T) {
	env := newTestEnv(nil)
	cid := seedCustomer(t, env, "Ada", "ada@example.com", "custpass123")

	tok := tokenFor(t, env, "ada@example.com", cid, domain.KindCustomer)
	req := jsonReq(http.MethodPost, "/v1/customers/"+cid+"/purchase", "")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCartRejectsOtherCustomersToken(t *testing.T) {
	env := newTestEnv(nil)
	cid := seedCustomer(t, env, "Ada", "ada@example.com", "custpass123")
	otherID := seedCustomer(t, env, "Eve", "eve@example.com", "custpass456")

	tok := tokenFor(t, env, "eve@example.com", otherID, domain.KindCustomer)
	req := jsonReq(http.MethodPut, "/v1/customers/"+cid+"/top-up", `{"amount":1000}`)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCustomersRegisterIsPublic(t *testing.T) {
	env := newTestEnv(nil)

	rec := env.do(jsonReq(http.MethodPost, "/v1/customers", `{"name":"Ada","email":"ada@example.com","password":"custpass123","password_confirm":"custpass123"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Same email again conflicts.
	rec = env.do(jsonReq(http.MethodPost, "/v1/customers", `{"name":"Ada","email":"ada@example.com","password":"custpass123","password_confirm":"custpass123"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}

	// Mismatched confirmation is rejected.
	rec = env.do(jsonReq(http.MethodPost, "/v1/customers", `{"name":"Eve","email":"eve@example.com","password":"custpass123","password_confirm":"custpass124"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatch status = %d", rec.Code)
	}
}
