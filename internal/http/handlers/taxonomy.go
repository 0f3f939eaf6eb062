package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/resourcehub-backend/internal/http/response"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

type TaxonomyHandler struct {
	log      *logger.Logger
	taxonomy services.TaxonomyService
}

func NewTaxonomyHandler(log *logger.Logger, taxonomy services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{log: log.With("handler", "TaxonomyHandler"), taxonomy: taxonomy}
}

// GET /api/categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	rows, err := h.taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		respondErr(c, h.log, "ListCategories", err)
		return
	}
	response.RespondOK(c, "Categories fetched", gin.H{"categories": rows})
}

// GET /api/tags
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	rows, err := h.taxonomy.ListTags(c.Request.Context())
	if err != nil {
		respondErr(c, h.log, "ListTags", err)
		return
	}
	response.RespondOK(c, "Tags fetched", gin.H{"tags": rows})
}
