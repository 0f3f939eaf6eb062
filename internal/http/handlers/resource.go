package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repos "github.com/yungbote/resourcehub-backend/internal/data/repos"
	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/http/response"
	"github.com/yungbote/resourcehub-backend/internal/platform/apierr"
	"github.com/yungbote/resourcehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/platform/validation"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

type ResourceHandler struct {
	log       *logger.Logger
	resources services.ResourceService
	validator *validation.Validator
}

func NewResourceHandler(log *logger.Logger, resources services.ResourceService) *ResourceHandler {
	return &ResourceHandler{
		log:       log.With("handler", "ResourceHandler"),
		resources: resources,
		validator: validation.New(),
	}
}

type createResourceRequest struct {
	Category    domainagg.CategoryRef `json:"category"`
	Tags        []domainagg.TagRef    `json:"tags" validate:"max=50"`
	Name        string                `json:"name" validate:"max=255"`
	Icon        string                `json:"icon" validate:"omitempty,url"`
	Thumbnail   string                `json:"thumbnail" validate:"omitempty,url"`
	Description string                `json:"description" validate:"max=4000"`
	URL         string                `json:"url" validate:"required,url"`
}

type tagDiffRequest struct {
	Add    []domainagg.TagRef `json:"add" validate:"max=50"`
	Delete []int64            `json:"delete" validate:"dive,gt=0"`
}

type updateResourceRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Icon        *string                `json:"icon" validate:"omitempty,url"`
	Thumbnail   *string                `json:"thumbnail" validate:"omitempty,url"`
	Description *string                `json:"description" validate:"omitempty,max=4000"`
	URL         *string                `json:"url" validate:"omitempty,url"`
	Category    *domainagg.CategoryRef `json:"category"`
	Tags        tagDiffRequest         `json:"tags"`
}

type deleteResourcesRequest struct {
	IDs  []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Mode string  `json:"mode" validate:"required,oneof=soft hard"`
}

type searchRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
	Page  int    `json:"page" validate:"gte=0"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

// GET /api/resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	f, err := parseResourceFilter(c)
	if err != nil {
		respondErr(c, h.log, "ListResources", err)
		return
	}
	page, err := h.resources.List(c.Request.Context(), f)
	if err != nil {
		respondErr(c, h.log, "ListResources", err)
		return
	}
	response.RespondOK(c, "Resources fetched", page)
}

// POST /api/resources
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if !h.bind(c, "CreateResource", &req) {
		return
	}
	view, err := h.resources.Create(c.Request.Context(), services.CreateResourceInput{
		Category:    req.Category,
		Tags:        req.Tags,
		Name:        req.Name,
		Icon:        req.Icon,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		respondErr(c, h.log, "CreateResource", err)
		return
	}
	response.RespondStatus(c, http.StatusCreated, "Resource created", view)
}

// GET /api/resources/:id
func (h *ResourceHandler) GetResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.resources.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "GetResource", err)
		return
	}
	response.RespondOK(c, "Resource fetched", view)
}

// PATCH /api/resources/:id
func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateResourceRequest
	if !h.bind(c, "UpdateResource", &req) {
		return
	}
	view, err := h.resources.Update(c.Request.Context(), id, services.UpdateResourceInput{
		Fields: domainagg.ResourceFields{
			Name:        req.Name,
			Icon:        req.Icon,
			Thumbnail:   req.Thumbnail,
			Description: req.Description,
			URL:         req.URL,
		},
		Tags:     domainagg.TagDiff{Add: req.Tags.Add, Delete: req.Tags.Delete},
		Category: req.Category,
	})
	if err != nil {
		respondErr(c, h.log, "UpdateResource", err)
		return
	}
	response.RespondOK(c, "Resource updated", view)
}

// DELETE /api/resources
func (h *ResourceHandler) DeleteResources(c *gin.Context) {
	var req deleteResourcesRequest
	if !h.bind(c, "DeleteResources", &req) {
		return
	}
	res, err := h.resources.Delete(c.Request.Context(), req.IDs, req.Mode)
	if err != nil {
		respondErr(c, h.log, "DeleteResources", err)
		return
	}
	response.RespondOK(c, "Resources deleted", gin.H{"ids": res.IDs})
}

// POST /api/resources/search
func (h *ResourceHandler) SearchResources(c *gin.Context) {
	var req searchRequest
	if !h.bind(c, "SearchResources", &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("query is required"), "query")
		return
	}
	out, err := h.resources.Search(c.Request.Context(), services.SearchInput{
		Query: req.Query,
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		respondErr(c, h.log, "SearchResources", err)
		return
	}
	response.RespondOK(c, "Search complete", out)
}

// GET /api/resources/:id/similar
func (h *ResourceHandler) SimilarResources(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	topK, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	rows, err := h.resources.Similar(c.Request.Context(), id, topK)
	if err != nil {
		respondErr(c, h.log, "SimilarResources", err)
		return
	}
	response.RespondOK(c, "Similar resources fetched", gin.H{"rows": rows})
}

// POST /api/resources/:id/like
func (h *ResourceHandler) LikeResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.resources.Like(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "LikeResource", err)
		return
	}
	response.RespondOK(c, "Resource liked", view)
}

// DELETE /api/resources/:id/like
func (h *ResourceHandler) UnlikeResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.resources.Unlike(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "UnlikeResource", err)
		return
	}
	response.RespondOK(c, "Resource unliked", view)
}

// POST /api/resources/:id/save
func (h *ResourceHandler) SaveResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.resources.Save(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "SaveResource", err)
		return
	}
	response.RespondOK(c, "Resource saved", view)
}

func (h *ResourceHandler) bind(c *gin.Context, op string, dst any) bool {
	return bindJSON(c, h.log, h.validator, op, dst)
}

func bindJSON(c *gin.Context, log *logger.Logger, v *validation.Validator, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	if err := v.Validate(dst); err != nil {
		respondErr(c, log, op, err)
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New(name+" must be a positive id"), name)
		return 0, false
	}
	return id, true
}

// parseResourceFilter reads the list query string. Tags and resourceIds
// accept repeated params or comma separated values.
func parseResourceFilter(c *gin.Context) (repos.ResourceFilter, error) {
	var f repos.ResourceFilter
	var err error
	if f.Page, err = intQuery(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = limitQuery(c); err != nil {
		return f, err
	}
	if f.Limit > repos.MaxPageSize {
		return f, apierr.BadRequest("validation_failed", errors.New("limit must be at most "+strconv.Itoa(repos.MaxPageSize)), "limit")
	}
	f.Search = c.Query("search")
	f.SortBy = c.Query("sortBy")
	f.SortType = c.Query("sortType")
	if f.SortBy != "" {
		if _, ok := repos.SortColumn(f.SortBy); !ok {
			return f, apierr.BadRequest("validation_failed", errors.New("unsupported sortBy"), "sortBy")
		}
	}
	if st := strings.ToLower(strings.TrimSpace(f.SortType)); st != "" && st != "asc" && st != "desc" {
		return f, apierr.BadRequest("validation_failed", errors.New("sortType must be asc or desc"), "sortType")
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, apierr.BadRequest("validation_failed", errors.New("category must be a positive id"), "category")
		}
		f.CategoryID = &id
	}
	if tags := listQuery(c, "tags"); len(tags) > 0 {
		f.Tags = tags
	}
	if raw := listQuery(c, "resourceIds"); raw != nil {
		f.ResourceIDs = make([]int64, 0, len(raw))
		for _, s := range raw {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id <= 0 {
				return f, apierr.BadRequest("validation_failed", errors.New("resourceIds must be positive ids"), "resourceIds")
			}
			f.ResourceIDs = append(f.ResourceIDs, id)
		}
	}
	if mine, _ := strconv.ParseBool(strings.TrimSpace(c.Query("mine"))); mine {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			owner := rd.UserID
			f.OwnerID = &owner
		}
	}
	return f, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apierr.BadRequest("validation_failed", errors.New(key+" must be a non-negative integer"), key)
	}
	return n, nil
}

// limitQuery is intQuery plus the -1 sentinel, which lifts the page size.
func limitQuery(c *gin.Context) (int, error) {
	if strings.TrimSpace(c.Query("limit")) == strconv.Itoa(repos.NoLimit) {
		return repos.NoLimit, nil
	}
	return intQuery(c, "limit")
}

// listQuery returns nil when the key is absent.
func listQuery(c *gin.Context, key string) []string {
	vals, ok := c.GetQueryArray(key)
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
