package httpapi

import (
	"net/http"
	"time"

	"marketserver/internal/domain"
)

type sellerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSellerResponse(s domain.Seller) sellerResponse {
	return sellerResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (a *api) handleSellersList(w http.ResponseWriter, r *http.Request) {
	f, _, limit := listParams(r)
	if limit > 0 {
		f.Limit = limit
	}

	sellers, err := a.sellersSvc.List(r.Context(), f)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	data := make([]sellerResponse, 0, len(sellers))
	for _, s := range sellers {
		data = append(data, toSellerResponse(s))
	}
	WriteJSON(w, http.StatusOK, data)
}

func (a *api) handleSellersGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelfOrAdmin(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	s, err := a.sellersSvc.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSellerResponse(s))
}

func (a *api) handleSellersCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	s, err := a.sellersSvc.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toSellerResponse(s))
}

func (a *api) handleSellersUpdate(w http.ResponseWriter, r *http.Request) {
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

	if err := a.sellersSvc.Update(r.Context(), id, req.Name, req.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSellersDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireSelfOrAdmin(r, id); err != nil {
		WriteDomainError(w, err)
		return
	}

	if err := a.sellersSvc.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSellersChangePassword(w http.ResponseWriter, r *http.Request) {
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

	if err := a.sellersSvc.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
