package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidortiz/eshop-backend/internal/catalog"
)

type CategoriesStore interface {
	List(ctx context.Context) ([]catalog.Category, error)
	Get(ctx context.Context, id string) (catalog.Category, error)
	Create(ctx context.Context, c catalog.Category) (catalog.Category, error)
	Update(ctx context.Context, c catalog.Category) (catalog.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoriesHandler struct {
	Store CategoriesStore
}

func (h *CategoriesHandler) Register(r chi.Router) {
	r.Get("/categories", h.list)
	r.Get("/categories/{id}", h.get)
	r.Post("/categories", h.create)
	r.Put("/categories/{id}", h.update)
	r.Delete("/categories/{id}", h.delete)
}

func (h *CategoriesHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Store.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CategoriesHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoriesHandler) create(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	if c.Name == "" {
		message(w, http.StatusBadRequest, "name required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Store.Create(ctx, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CategoriesHandler) update(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Store.Update(ctx, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CategoriesHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
