package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront-go/storefront/internal/domain/user"
)

type registerRequest struct {
	FullName             string
	Email                string
	Password             string
	PasswordConfirmation string
}

type loginRequest struct {
	Email    string
	Password string
}

// RegisterUser creates a new customer account.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRegisterRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed register user", "invalid request body")
		return
	}

	errs := map[string]string{}
	if req.FullName == "" {
		errs["fullName"] = "fullName is required"
	}
	if !strings.Contains(req.Email, "@") {
		errs["email"] = "email must be a valid email address"
	}
	if req.Password == "" {
		errs["password"] = "password is required"
	}
	if req.Password != req.PasswordConfirmation {
		errs["passwordConfirmation"] = "passwords must match"
	}
	if len(errs) > 0 {
		writeFieldErrors(w, r, "Failed register user", errs)
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, r, http.StatusBadRequest, "Failed register user", "email already registered")
		return
	} else if !errors.Is(err, user.ErrNotFound) {
		zctx.From(r.Context()).Error("Register user", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed register user", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed register user", err.Error())
		return
	}

	u := &user.User{
		ID:           uuid.New().String(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		zctx.From(r.Context()).Error("Register user", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed register user", err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success register user")
		e.FieldStart("data")
		encodeUser(e, u)
		e.ObjEnd()
	})
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed login", "invalid request body")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same response as a wrong password: do not reveal which part failed.
			writeError(w, r, http.StatusForbidden, "Failed login", "invalid email or password")
			return
		}
		zctx.From(r.Context()).Error("Login", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed login", err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, r, http.StatusForbidden, "Failed login", "invalid email or password")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		zctx.From(r.Context()).Error("Login", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed login", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success login")
		e.FieldStart("data")
		e.Str(token)
		e.ObjEnd()
	})
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized", "missing session")
		return
	}

	u, err := h.users.GetByID(r.Context(), id.UserID)
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Failed get profile", "user not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Get profile", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed get profile", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Success get profile")
		e.FieldStart("data")
		encodeUser(e, u)
		e.ObjEnd()
	})
}

func decodeRegisterRequest(r *http.Request) (registerRequest, error) {
	var req registerRequest

	d, err := readBody(r)
	if err != nil {
		return req, err
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "fullName":
			v, err := d.Str()
			req.FullName = v
			return err
		case "email":
			v, err := d.Str()
			req.Email = v
			return err
		case "password":
			v, err := d.Str()
			req.Password = v
			return err
		case "passwordConfirmation":
			v, err := d.Str()
			req.PasswordConfirmation = v
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func decodeLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest

	d, err := readBody(r)
	if err != nil {
		return req, err
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "email":
			v, err := d.Str()
			req.Email = v
			return err
		case "password":
			v, err := d.Str()
			req.Password = v
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func encodeUser(e *jx.Encoder, u *user.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("fullName")
	e.Str(u.FullName)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("role")
	e.Str(u.Role)
	e.FieldStart("createdAt")
	encodeTime(e, u.CreatedAt)
	e.ObjEnd()
}
