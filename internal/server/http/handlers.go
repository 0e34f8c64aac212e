package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/money"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/session"
)

// User-facing messages.
const (
	msgLoginFirst         = "Please log in first."
	msgLoginForDashboard  = "Please log in to access your dashboard."
	msgRegistered         = "Registration successful! Please log in."
	msgEmailTaken         = "Email already registered. Try logging in."
	msgBadCredentials     = "Invalid email or password."
	msgEmailNotFound      = "Email not found."
	msgResetSent          = "Password reset link sent to your email (simulation)."
	msgLoggedOut          = "You have been logged out."
	msgInitFailed         = "Payment initialization failed. Try again."
	msgFunded             = "Wallet funded successfully!"
	msgVerifyFailed       = "Payment verification failed."
	msgAlreadyProcessed   = "This payment has already been processed."
	msgInsufficient       = "Insufficient balance. Please fund your wallet."
	msgInvalidAmount      = "Please enter a valid amount."
	msgUnknownPlan        = "Unknown data plan."
	msgSomethingWentWrong = "Something went wrong. Please try again."
)

type viewData map[string]any

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn(r.Context(), "write response", "error", err)
	}
}

// render pops the session's flashes into data and writes it.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, sc *session.Context, data viewData) {
	if data == nil {
		data = viewData{}
	}
	flashes := h.sessions.PopFlashes(sc.ID)
	if flashes == nil {
		flashes = []string{}
	}
	data["flashes"] = flashes
	data["authenticated"] = sc.Authenticated()
	h.writeJSON(w, r, http.StatusOK, data)
}

// redirect queues msg (when non-empty) and answers 303 See Other.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, sc *session.Context, to, msg string) {
	if msg != "" {
		h.sessions.AddFlash(sc.ID, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// view renders a plain page. extra, when set, adds page data.
func (h *Handler) view(extra func() viewData) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sc *session.Context) {
		var data viewData
		if extra != nil {
			data = extra()
		}
		h.render(w, r, sc, data)
	}
}

func (h *Handler) planList() viewData {
	plans := h.plans.Plans()
	out := make([]map[string]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]string{"id": p.ID, "price": p.Price.StringFixed(2)})
	}
	return viewData{"plans": out}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	h.render(w, r, sc, viewData{"app": "wallet"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeRegister(r)
	if err != nil {
		h.redirect(w, r, sc, "/register", fmt.Sprintf("Please provide a valid %s.", fieldLabel(firstInvalidField(err))))
		return
	}

	_, err = h.accounts.Register(r.Context(), f.Username, f.Email, f.Password)
	switch {
	case err == nil:
		h.redirect(w, r, sc, "/login", msgRegistered)
	case errors.Is(err, common.ErrAlreadyExists):
		h.redirect(w, r, sc, "/login", msgEmailTaken)
	case errors.Is(err, common.ErrValidation):
		h.redirect(w, r, sc, "/register", "Please provide a valid username.")
	default:
		h.redirect(w, r, sc, "/register", msgSomethingWentWrong)
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeLogin(r)
	if err != nil {
		h.redirect(w, r, sc, "/login", msgBadCredentials)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), f.Email, f.Password)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrInvalidCredential) {
			h.redirect(w, r, sc, "/login", msgSomethingWentWrong)
			return
		}
		h.redirect(w, r, sc, "/login", msgBadCredentials)
		return
	}

	h.sessions.End(sc.ID)
	fresh, err := h.sessions.Start(user.Email)
	if err != nil {
		h.log.Error(r.Context(), "start session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, fresh)
	h.log.Info(r.Context(), "user logged in", "email", user.Email)
	h.redirect(w, r, fresh, "/dashboard", fmt.Sprintf("Welcome back, %s!", user.Username))
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeReset(r)
	if err != nil {
		h.redirect(w, r, sc, "/reset", msgEmailNotFound)
		return
	}

	switch err := h.accounts.RequestPasswordReset(r.Context(), f.Email); {
	case err == nil:
		h.redirect(w, r, sc, "/login", msgResetSent)
	case errors.Is(err, common.ErrNotFound):
		h.redirect(w, r, sc, "/reset", msgEmailNotFound)
	default:
		h.redirect(w, r, sc, "/reset", msgSomethingWentWrong)
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	h.sessions.End(sc.ID)
	fresh, err := h.sessions.Open("")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, fresh)
	h.redirect(w, r, fresh, "/login", msgLoggedOut)
}

func (h *Handler) receivingAccount(w http.ResponseWriter, r *http.Request, sc *session.Context) (models.ReceivingAccount, bool) {
	acc, err := h.sessions.AssignReceivingAccount(sc.ID)
	if err != nil {
		h.redirect(w, r, sc, "/login", msgLoginFirst)
		return models.ReceivingAccount{}, false
	}
	return acc, true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	wallet, err := h.accounts.Wallet(r.Context(), sc.Identity)
	if err != nil {
		h.log.Error(r.Context(), "load wallet", "email", sc.Identity, "error", err)
		h.redirect(w, r, sc, "/login", msgLoginForDashboard)
		return
	}
	acc, ok := h.receivingAccount(w, r, sc)
	if !ok {
		return
	}

	h.render(w, r, sc, viewData{
		"email":          wallet.Email,
		"balance":        wallet.Balance.StringFixed(2),
		"data_bonus":     wallet.DataBonus,
		"account_number": acc.Number,
		"bank_name":      acc.Bank,
	})
}

func (h *Handler) fundView(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	acc, ok := h.receivingAccount(w, r, sc)
	if !ok {
		return
	}
	h.render(w, r, sc, viewData{"account_number": acc.Number, "bank_name": acc.Bank})
}

func (h *Handler) fund(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeAmount(r)
	if err != nil {
		h.redirect(w, r, sc, "/fund", msgInvalidAmount)
		return
	}
	amount, err := money.Parse(f.Amount)
	if err != nil {
		h.redirect(w, r, sc, "/fund", msgInvalidAmount)
		return
	}

	ini, err := h.funding.Initiate(r.Context(), sc.Identity, amount)
	switch {
	case err == nil:
		http.Redirect(w, r, ini.AuthorizationURL, http.StatusSeeOther)
	case errors.Is(err, common.ErrInvalidAmount):
		h.redirect(w, r, sc, "/fund", msgInvalidAmount)
	default:
		h.redirect(w, r, sc, "/fund", msgInitFailed)
	}
}

func (h *Handler) fundCallback(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	reference := r.URL.Query().Get("reference")

	_, err := h.funding.Complete(r.Context(), sc.Identity, reference)
	switch {
	case err == nil:
		h.redirect(w, r, sc, "/dashboard", msgFunded)
	case errors.Is(err, common.ErrUnauthenticated):
		h.redirect(w, r, sc, "/login", msgLoginFirst)
	case errors.Is(err, common.ErrAlreadyProcessed):
		h.redirect(w, r, sc, "/dashboard", msgAlreadyProcessed)
	default:
		h.redirect(w, r, sc, "/fund", msgVerifyFailed)
	}
}

func (h *Handler) airtime(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeAmount(r)
	if err != nil {
		h.redirect(w, r, sc, "/airtime", msgInvalidAmount)
		return
	}
	amount, err := money.Parse(f.Amount)
	if err != nil {
		h.redirect(w, r, sc, "/airtime", msgInvalidAmount)
		return
	}
	if _, err := money.ToMinor(amount); err != nil {
		h.redirect(w, r, sc, "/airtime", msgInvalidAmount)
		return
	}

	_, err = h.purchases.BuyAirtime(r.Context(), sc.Identity, amount)
	switch {
	case err == nil:
		h.redirect(w, r, sc, "/airtime", fmt.Sprintf("Airtime of ₦%s purchased successfully!", amount.String()))
	case errors.Is(err, common.ErrInsufficientBalance):
		h.redirect(w, r, sc, "/airtime", msgInsufficient)
	case errors.Is(err, common.ErrInvalidAmount):
		h.redirect(w, r, sc, "/airtime", msgInvalidAmount)
	default:
		h.redirect(w, r, sc, "/airtime", msgSomethingWentWrong)
	}
}

func (h *Handler) data(w http.ResponseWriter, r *http.Request, sc *session.Context) {
	f, err := h.decodeData(r)
	if err != nil {
		h.redirect(w, r, sc, "/data", fmt.Sprintf("Please provide a valid %s.", fieldLabel(firstInvalidField(err))))
		return
	}

	order := models.DataOrder{Network: f.Network, Phone: f.Phone, PlanID: f.Plan, PIN: f.PIN}
	_, err = h.purchases.BuyData(r.Context(), sc.Identity, order)
	switch {
	case err == nil:
		h.redirect(w, r, sc, "/data", fmt.Sprintf("%s %s data purchased successfully for %s!", f.Network, f.Plan, f.Phone))
	case errors.Is(err, common.ErrInsufficientBalance):
		h.redirect(w, r, sc, "/data", msgInsufficient)
	case errors.Is(err, common.ErrUnknownPlan):
		h.redirect(w, r, sc, "/data", msgUnknownPlan)
	default:
		h.redirect(w, r, sc, "/data", msgSomethingWentWrong)
	}
}

func fieldLabel(field string) string {
	switch field {
	case "PIN":
		return "PIN"
	case "":
		return "input"
	default:
		return strings.ToLower(field)
	}
}
