package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type registerForm struct {
	Username string `validate:"required,max=64"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=128"`
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type resetForm struct {
	Email string `validate:"required,email"`
}

type amountForm struct {
	Amount string `validate:"required,numeric"`
}

type dataForm struct {
	Network string `validate:"required,max=32"`
	Phone   string `validate:"required,numeric,min=7,max=15"`
	Plan    string `validate:"required"`
	PIN     string `validate:"required,numeric,min=4,max=6"`
}

func (h *Handler) decodeRegister(r *http.Request) (registerForm, error) {
	f := registerForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	return f, h.validate.Struct(f)
}

func (h *Handler) decodeLogin(r *http.Request) (loginForm, error) {
	f := loginForm{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	return f, h.validate.Struct(f)
}

func (h *Handler) decodeReset(r *http.Request) (resetForm, error) {
	f := resetForm{Email: r.PostFormValue("email")}
	return f, h.validate.Struct(f)
}

func (h *Handler) decodeAmount(r *http.Request) (amountForm, error) {
	f := amountForm{Amount: r.PostFormValue("amount")}
	return f, h.validate.Struct(f)
}

func (h *Handler) decodeData(r *http.Request) (dataForm, error) {
	f := dataForm{
		Network: r.PostFormValue("network"),
		Phone:   r.PostFormValue("phone"),
		Plan:    r.PostFormValue("plan"),
		PIN:     r.PostFormValue("pin"),
	}
	return f, h.validate.Struct(f)
}

// firstInvalidField names the first field that failed validation.
func firstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
