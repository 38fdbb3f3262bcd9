package httpapi

import (
	"net/http"
	"strings"
	"time"

	"marketserver/internal/domain"
)

type productResponse struct {
	ID          string    `json:"id"`
	SellerEmail string    `json:"seller_email"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		SellerEmail: p.SellerEmail,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (a *api) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := a.productsSvc.List(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	data := make([]productResponse, 0, len(products))
	for _, p := range products {
		data = append(data, toProductResponse(p))
	}
	WriteJSON(w, http.StatusOK, data)
}

func (a *api) handleProductsGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.productsSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProductResponse(p))
}

type productRequest struct {
	SellerEmail string `json:"seller_email"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
}

func (req *productRequest) validate() map[string]string {
	fields := map[string]string{}
	if !validEmail(normalizeEmail(req.SellerEmail)) {
		fields["seller_email"] = "must be a valid email address"
	}
	if !validName(strings.TrimSpace(req.Name)) {
		fields["name"] = "must be 1-100 characters"
	}
	if req.Price < 0 {
		fields["price"] = "must not be negative"
	}
	if req.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	return fields
}

// requireOwner rejects writes whose token email differs from the listing's
// seller email.
func requireOwner(r *http.Request, sellerEmail string) error {
	claims, ok := CurrentClaims(r.Context())
	if !ok {
		return domain.ErrUnauthorized
	}
	if !strings.EqualFold(claims.Email, sellerEmail) {
		return domain.ErrTokenMismatch
	}
	return nil
}

func (a *api) handleProductsCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}
	if err := requireOwner(r, req.SellerEmail); err != nil {
		WriteDomainError(w, err)
		return
	}

	p, err := a.productsSvc.Create(r.Context(), req.SellerEmail, strings.TrimSpace(req.Name), req.Price, req.Stock)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toProductResponse(p))
}

func (a *api) handleProductsUpdate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}
	if err := requireOwner(r, req.SellerEmail); err != nil {
		WriteDomainError(w, err)
		return
	}

	if err := a.productsSvc.Update(r.Context(), r.PathValue("id"), req.SellerEmail, strings.TrimSpace(req.Name), req.Price, req.Stock); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleProductsDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := CurrentClaims(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.productsSvc.Delete(r.Context(), r.PathValue("id"), claims.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
