package knowledge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"arogya-setu/internal/platform/respond"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	respond.JSON(w, http.StatusOK, h.catalog.Search(q.Get("q"), q.Get("category")))
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.catalog.CategoryList())
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/knowledge", h.Search)
	r.Get("/knowledge/categories", h.Categories)
}
