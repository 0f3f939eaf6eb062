package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/resourcehub-backend/internal/http/response"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/validation"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

type CollectionHandler struct {
	log       *logger.Logger
	resources services.ResourceService
	validator *validation.Validator
}

func NewCollectionHandler(log *logger.Logger, resources services.ResourceService) *CollectionHandler {
	return &CollectionHandler{
		log:       log.With("handler", "CollectionHandler"),
		resources: resources,
		validator: validation.New(),
	}
}

type createCollectionRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type addToCollectionRequest struct {
	ResourceID int64 `json:"resourceId" validate:"required,gt=0"`
}

// GET /api/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	rows, err := h.resources.ListCollections(c.Request.Context())
	if err != nil {
		respondErr(c, h.log, "ListCollections", err)
		return
	}
	response.RespondOK(c, "Collections fetched", gin.H{"collections": rows})
}

// POST /api/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if !bindJSON(c, h.log, h.validator, "CreateCollection", &req) {
		return
	}
	col, err := h.resources.CreateCollection(c.Request.Context(), req.Name)
	if err != nil {
		respondErr(c, h.log, "CreateCollection", err)
		return
	}
	response.RespondStatus(c, http.StatusCreated, "Collection created", col)
}

// POST /api/collections/:id/resources
func (h *CollectionHandler) AddResource(c *gin.Context) {
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addToCollectionRequest
	if !bindJSON(c, h.log, h.validator, "AddToCollection", &req) {
		return
	}
	if err := h.resources.AddToCollection(c.Request.Context(), collectionID, req.ResourceID); err != nil {
		respondErr(c, h.log, "AddToCollection", err)
		return
	}
	response.RespondOK(c, "Resource added to collection", gin.H{"collectionId": collectionID, "resourceId": req.ResourceID})
}

// DELETE /api/collections/:id/resources/:resourceId
func (h *CollectionHandler) RemoveResource(c *gin.Context) {
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resourceID, ok := pathID(c, "resourceId")
	if !ok {
		return
	}
	if err := h.resources.RemoveFromCollection(c.Request.Context(), collectionID, resourceID); err != nil {
		respondErr(c, h.log, "RemoveFromCollection", err)
		return
	}
	response.RespondOK(c, "Resource removed from collection", gin.H{"collectionId": collectionID, "resourceId": resourceID})
}
