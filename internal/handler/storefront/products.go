package storefront

import (
	"net/http"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/handler"
)

// ProductHandler serves the storefront catalog read path.
type ProductHandler struct {
	catalog domain.CatalogService
}

func NewProductHandler(catalog domain.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// Show handles GET /products/{slug}. The default variant is resolved through
// the selection cascade and marked on the variant list.
func (h *ProductHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetProductDetail(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newProductView(detail))
}
