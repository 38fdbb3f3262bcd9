package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketserver/internal/domain"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type pageResponse[T any] struct {
	PageNumber  int  `json:"page_number"`
	PageSize    int  `json:"page_size"`
	Count       int  `json:"count"`
	TotalPages  int  `json:"total_page"`
	HasPrevious bool `json:"has_previous_page"`
	HasNext     bool `json:"has_next_page"`
	Data        []T  `json:"data"`
}

// listParams reads page, limit, search ("field:term") and sort
// ("field:asc|desc") query parameters.
func listParams(r *http.Request) (domain.ListFilter, int, int) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	var f domain.ListFilter
	if search := q.Get("search"); search != "" {
		if field, term, ok := strings.Cut(search, ":"); ok && term != "" {
			f.SearchField = field
			f.Search = term
		}
	}
	if sort := q.Get("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ":")
		f.SortField = field
		f.SortDesc = strings.EqualFold(dir, "desc")
	}
	return f, page, limit
}

func (a *api) handleUsersList(w http.ResponseWriter, r *http.Request) {
	f, page, limit := listParams(r)

	result, err := a.usersSvc.List(r.Context(), f, page, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	data := make([]userResponse, 0, len(result.Data))
	for _, u := range result.Data {
		data = append(data, toUserResponse(u))
	}

	WriteJSON(w, http.StatusOK, pageResponse[userResponse]{
		PageNumber:  result.PageNumber,
		PageSize:    result.PageSize,
		Count:       result.Count,
		TotalPages:  result.TotalPages,
		HasPrevious: result.HasPrevious,
		HasNext:     result.HasNext,
		Data:        data,
	})
}

func (a *api) handleUsersGet(w http.ResponseWriter, r *http.Request) {
	u, err := a.usersSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(u))
}

type createAccountRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (req *createAccountRequest) validate() map[string]string {
	fields := map[string]string{}
	if !validName(strings.TrimSpace(req.Name)) {
		fields["name"] = "must be 1-100 characters"
	}
	if !validEmail(normalizeEmail(req.Email)) {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < minPasswordLen {
		fields["password"] = "must be at least 8 characters"
	}
	if req.PasswordConfirm != req.Password {
		fields["password_confirm"] = "must match password"
	}
	return fields
}

func (a *api) handleUsersCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	u, err := a.usersSvc.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (req *updateAccountRequest) validate() map[string]string {
	fields := map[string]string{}
	if !validName(strings.TrimSpace(req.Name)) {
		fields["name"] = "must be 1-100 characters"
	}
	if !validEmail(normalizeEmail(req.Email)) {
		fields["email"] = "must be a valid email address"
	}
	return fields
}

func (a *api) handleUsersUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		WriteDomainError(w, domain.NewValidationError(fields))
		return
	}

	if err := a.usersSvc.Update(r.Context(), r.PathValue("id"), req.Name, req.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleUsersDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.usersSvc.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (a *api) handleUsersChangePassword(w http.ResponseWriter, r *http.Request) {
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

	if err := a.usersSvc.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireSelf allows the request only when the token subject is the
// addressed account.
func requireSelf(r *http.Request, id string) error {
	claims, ok := CurrentClaims(r.Context())
	if !ok {
		return domain.ErrUnauthorized
	}
	if claims.Subject != id {
		return domain.ErrForbidden
	}
	return nil
}
