package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidortiz/eshop-backend/internal/catalog"
)

type ProductsStore interface {
	List(ctx context.Context, categoryIDs []string) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Featured(ctx context.Context, limit int) ([]catalog.Product, error)
}

type ProductsHandler struct {
	Store ProductsStore
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/get/count", h.count)
	r.Get("/products/get/featured", h.featured)
	r.Get("/products/get/featured/{count}", h.featured)
	r.Get("/products/{id}", h.get)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var categoryIDs []string
	if q := r.URL.Query().Get("categories"); q != "" {
		categoryIDs = strings.Split(q, ",")
	}
	out, err := h.Store.List(ctx, categoryIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.Name == "" || p.PriceCents < 0 {
		message(w, http.StatusBadRequest, "name required, price must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Store.Create(ctx, p)
	if err != nil {
		// dangling category reference in the body is the caller's fault
		if errors.Is(err, catalog.ErrNotFound) {
			message(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	p.ID = chi.URLParam(r, "id")
	if p.PriceCents < 0 {
		message(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Store.Update(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProductsHandler) count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.Count(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"productCount": n})
}

func (h *ProductsHandler) featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit := 0
	if c := chi.URLParam(r, "count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			message(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		limit = n
	}
	out, err := h.Store.Featured(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
