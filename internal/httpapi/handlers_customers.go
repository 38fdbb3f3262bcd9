package httpapi

import (
	"net/http"
	"strings"
	"time"

	"marketserver/internal/domain"
)

type customerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Wallet    int64     `json:"wallet"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Wallet:    c.Wallet,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// requireSelfOrAdmin lets a user-kind token through unconditionally and
// everyone else only when addressing their own account.
func requireSelfOrAdmin(r *http.Request, id string) error {
	claims, ok := CurrentClaims(r.Context())
	if !ok {
		return domain.ErrUnauthorized
	}
	if claims.Kind == domain.KindUser {
		return nil
	}
	if claims.Subject != id {
		return domain.ErrForbidden
	}
	return nil
}

func (a *api) handleCustomersList(w http.ResponseWriter, r *http.Request) {
	f, _, limit := listParams(r)
	if limit > 0 {
		f.Limit = limit
	}

	customers, err := a.customersSvc.List(r.Context(), f)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	data := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		data = append(data, toCustomerResponse(c))
	}
	WriteJSON(w, http.StatusOK, data)
}

func (a *api) handleCustomersGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelfOrAdmin(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	c, err := a.customersSvc.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (a *api) handleCustomersCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	c, err := a.customersSvc.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (a *api) handleCustomersUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelfOrAdmin(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	if err := a.customersSvc.Update(r.Context(), id, req.Name, req.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleCustomersDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelfOrAdmin(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	if err := a.customersSvc.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleCustomersChangePassword(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"new_password": "must be at least 8 characters"}))
		return
	}

	if err := a.customersSvc.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

func (a *api) handleCartGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	items, err := a.customersSvc.Cart(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	data := make([]cartItemResponse, 0, len(items))
	for _, it := range items {
		data = append(data, cartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	WriteJSON(w, http.StatusOK, data)
}

type cartAddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (a *api) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req cartAddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.ProductID) == "" {
		fields["product_id"] = "required"
	}
	if req.Quantity < 1 {
		fields["quantity"] = "must be at least 1"
	}
	if len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	if err := a.customersSvc.AddToCart(r.Context(), id, req.ProductID, req.Quantity); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cartRemoveRequest struct {
	ProductID string `json:"product_id"`
}

func (a *api) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req cartRemoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"product_id": "required"}))
		return
	}

	if err := a.customersSvc.RemoveFromCart(r.Context(), id, req.ProductID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type topUpRequest struct {
	Amount int64 `json:"amount"`
}

func (a *api) handleTopUp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req topUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Amount < 1 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"amount": "must be positive"}))
		return
	}

	balance, err := a.customersSvc.TopUp(r.Context(), id, req.Amount)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"wallet": balance})
}

func (a *api) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelf(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	total, err := a.customersSvc.Purchase(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"total": total})
}
