package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidortiz/eshop-backend/internal/auth"
	"github.com/davidortiz/eshop-backend/internal/catalog"
)

type UsersStore interface {
	List(ctx context.Context) ([]catalog.User, error)
	Get(ctx context.Context, id string) (catalog.User, error)
	GetByEmail(ctx context.Context, email string) (catalog.User, error)
	Create(ctx context.Context, u catalog.User) (catalog.User, error)
	Update(ctx context.Context, u catalog.User) (catalog.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type UsersHandler struct {
	Store UsersStore
	Gate  *auth.Gate
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users", h.list)
	r.Get("/users/get/count", h.count)
	r.Get("/users/{id}", h.get)
	r.Post("/users/register", h.register)
	r.Post("/users/login", h.login)
	r.Put("/users/{id}", h.update)
	r.Delete("/users/{id}", h.delete)
}

type userReq struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
}

func (r userReq) user() catalog.User {
	return catalog.User{
		Name:      r.Name,
		Email:     r.Email,
		Street:    r.Street,
		Apartment: r.Apartment,
		City:      r.City,
		Zip:       r.Zip,
		Country:   r.Country,
		Phone:     r.Phone,
		IsAdmin:   r.IsAdmin,
	}
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		message(w, http.StatusBadRequest, "email and password required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		writeError(w, err)
		return
	}
	u := req.user()
	u.PasswordHash = string(hash)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Store.Create(ctx, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Store.GetByEmail(ctx, req.Email)
	if errors.Is(err, catalog.ErrNotFound) {
		// same reply as a bad password, no account enumeration
		message(w, http.StatusBadRequest, "email or password incorrect")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		message(w, http.StatusBadRequest, "email or password incorrect")
		return
	}

	token, err := h.Gate.IssueToken(auth.Principal{UserID: u.ID, IsAdmin: u.IsAdmin})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user": u.Email, "token": token})
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	u := req.user()
	u.ID = chi.URLParam(r, "id")
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
		if err != nil {
			writeError(w, err)
			return
		}
		u.PasswordHash = string(hash)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Store.Update(ctx, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *UsersHandler) count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.Count(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"userCount": n})
}
