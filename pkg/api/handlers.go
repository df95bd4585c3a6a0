package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

// Handlers serves the world API on top of a world.Service.
type Handlers struct {
	svc *world.Service
}

// NewHandlers creates the handler set.
func NewHandlers(svc *world.Service) *Handlers {
	return &Handlers{svc: svc}
}

type metaRequest struct {
	Description string `json:"description"`
}

type versionRequest struct {
	Version string `json:"version"`
	Notes   string `json:"notes"`
}

// bindDocument decodes a JSON object body. It writes the 400 itself.
func bindDocument(c *gin.Context) (core.Document, bool) {
	var doc core.Document
	if err := c.ShouldBindJSON(&doc); err != nil || doc == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON object", Code: "INVALID_REQUEST"})
		return nil, false
	}
	return doc, true
}

// HandleWorld handles GET /api/world.
func (h *Handlers) HandleWorld(c *gin.Context) {
	st, err := h.svc.Load(c.Request.Context())
	if err != nil {
		fail(c, err, "World")
		return
	}
	c.JSON(http.StatusOK, st)
}

// HandleGetMeta handles GET /api/world/meta.
func (h *Handlers) HandleGetMeta(c *gin.Context) {
	meta, err := h.svc.Meta(c.Request.Context())
	if err != nil {
		fail(c, err, "Meta")
		return
	}
	c.JSON(http.StatusOK, meta)
}

// HandlePutMeta handles PUT /api/world/meta. Only description is honoured.
func (h *Handlers) HandlePutMeta(c *gin.Context) {
	var req metaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	meta, err := h.svc.UpdateMetaDescription(c.Request.Context(), req.Description)
	if err != nil {
		fail(c, err, "Meta")
		return
	}
	c.JSON(http.StatusOK, meta)
}

// namedGetter returns the GET handler of a singleton document.
func (h *Handlers) namedGetter(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := h.svc.GetNamed(c.Request.Context(), name)
		if err != nil {
			fail(c, err, "Document "+name)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// namedPutter returns the PUT handler of a singleton document.
func (h *Handlers) namedPutter(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := bindDocument(c)
		if !ok {
			return
		}
		saved, err := h.svc.PutNamed(c.Request.Context(), name, doc)
		if err != nil {
			fail(c, err, "Document "+name)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// HandleListDomains handles GET /api/world/domains.
func (h *Handlers) HandleListDomains(c *gin.Context) {
	domains, err := h.svc.ListDomains(c.Request.Context())
	if err != nil {
		fail(c, err, "Domain registry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

// HandleGetDomain handles GET /api/world/domains/:id.
func (h *Handlers) HandleGetDomain(c *gin.Context) {
	doc, err := h.svc.GetDomain(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Domain")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// HandleCreateDomain handles POST /api/world/domains.
func (h *Handlers) HandleCreateDomain(c *gin.Context) {
	var in world.DomainInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id and name are required", Code: "INVALID_REQUEST"})
		return
	}
	doc, err := h.svc.CreateDomain(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Domain")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// HandleUpdateDomain handles PUT /api/world/domains/:id.
func (h *Handlers) HandleUpdateDomain(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	saved, err := h.svc.UpdateDomain(c.Request.Context(), c.Param("id"), doc)
	if err != nil {
		fail(c, err, "Domain")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// HandleDeleteDomain handles DELETE /api/world/domains/:id.
func (h *Handlers) HandleDeleteDomain(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteDomain(c.Request.Context(), id); err != nil {
		fail(c, err, "Domain")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Domain deleted", "id": id})
}

// HandleListQuestions handles GET /api/world/open-questions.
func (h *Handlers) HandleListQuestions(c *gin.Context) {
	questions, err := h.svc.ListQuestions(c.Request.Context())
	if err != nil {
		fail(c, err, "Questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// HandleGetQuestion handles GET /api/world/open-questions/:id.
func (h *Handlers) HandleGetQuestion(c *gin.Context) {
	q, err := h.svc.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Question")
		return
	}
	c.JSON(http.StatusOK, q)
}

// HandleCreateQuestion handles POST /api/world/open-questions.
func (h *Handlers) HandleCreateQuestion(c *gin.Context) {
	var in world.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and question are required", Code: "INVALID_REQUEST"})
		return
	}
	q, err := h.svc.CreateQuestion(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Question")
		return
	}
	c.JSON(http.StatusCreated, q)
}

// HandleUpdateQuestion handles PUT /api/world/open-questions/:id.
func (h *Handlers) HandleUpdateQuestion(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	q, err := h.svc.UpdateQuestion(c.Request.Context(), c.Param("id"), doc)
	if err != nil {
		fail(c, err, "Question")
		return
	}
	c.JSON(http.StatusOK, q)
}

// HandleDeleteQuestion handles DELETE /api/world/open-questions/:id.
func (h *Handlers) HandleDeleteQuestion(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteQuestion(c.Request.Context(), id); err != nil {
		fail(c, err, "Question")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted", "id": id})
}

// HandleCreateVersion handles POST /api/world/versions.
func (h *Handlers) HandleCreateVersion(c *gin.Context) {
	var req versionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: `version is required (e.g., "0.1.0")`, Code: "INVALID_REQUEST"})
		return
	}
	res, err := h.svc.CreateSnapshot(c.Request.Context(), req.Version, req.Notes)
	snapshotOps.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		fail(c, err, "Version")
		return
	}
	logger(c).Info("version created", "version", req.Version)
	c.JSON(http.StatusCreated, gin.H{"message": "Version created", "version": req.Version, "path": res.Path})
}

// HandleListVersions handles GET /api/world/versions.
func (h *Handlers) HandleListVersions(c *gin.Context) {
	versions, err := h.svc.ListSnapshots(c.Request.Context())
	if err != nil {
		fail(c, err, "Versions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// HandleGetVersion handles GET /api/world/versions/:version.
func (h *Handlers) HandleGetVersion(c *gin.Context) {
	snap, err := h.svc.GetSnapshot(c.Request.Context(), c.Param("version"))
	if err != nil {
		fail(c, err, "Version")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HandleRestoreVersion handles POST /api/world/versions/:version/restore.
func (h *Handlers) HandleRestoreVersion(c *gin.Context) {
	version := c.Param("version")
	err := h.svc.RestoreSnapshot(c.Request.Context(), version)
	snapshotOps.WithLabelValues("restore", outcome(err)).Inc()
	if err != nil {
		fail(c, err, "Version")
		return
	}
	logger(c).Info("version restored", "version", version)
	c.JSON(http.StatusOK, gin.H{"message": "Restored successfully", "version": version})
}
