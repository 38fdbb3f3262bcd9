package httpapi

import (
	"net/http"
	"time"

	"marketserver/internal/domain"
	"marketserver/internal/service"
	"marketserver/internal/throttle"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse names the account id after the kind that logged in
// (user_id, customer_id or seller_id); exactly one of the three is set.
type loginResponse struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	UserID     string `json:"user_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	SellerID   string `json:"seller_id,omitempty"`
	Token      string `json:"token"`
}

func newLoginResponse(kind domain.AccountKind, res throttle.Result) loginResponse {
	out := loginResponse{Email: res.Email, Name: res.Name, Token: res.Token}
	switch kind {
	case domain.KindCustomer:
		out.CustomerID = res.AccountID
	case domain.KindSeller:
		out.SellerID = res.AccountID
	default:
		out.UserID = res.AccountID
	}
	return out
}

// loginFailure keeps the standard error envelope and adds the failed-attempt
// counter so clients can warn before the lockout kicks in.
type loginFailure struct {
	Error    apiError `json:"error"`
	Attempts int      `json:"attempts"`
}

func (a *api) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	a.handleLogin(w, r, a.userLogin)
}

func (a *api) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	a.handleLogin(w, r, a.customerLogin)
}

func (a *api) handleSellerLogin(w http.ResponseWriter, r *http.Request) {
	a.handleLogin(w, r, a.sellerLogin)
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request, svc *service.LoginService) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "required", "password": "required"}))
		return
	}

	if !a.loginLimiter.Allow("ip:"+clientIP(r), time.Now()) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		return
	}

	res, err := svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if !res.OK {
		WriteJSON(w, http.StatusUnauthorized, loginFailure{
			Error:    apiError{Code: "invalid_credentials", Message: "invalid email or password"},
			Attempts: res.Attempts,
		})
		return
	}

	WriteJSON(w, http.StatusOK, newLoginResponse(svc.Kind, res))
}
