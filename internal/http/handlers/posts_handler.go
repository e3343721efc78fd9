package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/repo"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/utils"
)

// PostsHandler exposes read-only post inspection for operators. Creating and
// editing posts is the surrounding application's job; this surface only
// answers "what is queued, what went out, what failed".
type PostsHandler struct {
	DB *gorm.DB
}

// postsPage is the GET /posts response.
type postsPage struct {
	Items    []domain.Post `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// validStatusFilter reports whether s is usable as a status filter; the
// empty string means no filter.
func validStatusFilter(s domain.PostStatus) bool {
	switch s {
	case "", domain.StatusDraft, domain.StatusScheduled, domain.StatusPosted, domain.StatusFailed:
		return true
	}
	return false
}

// List returns a page of posts, optionally filtered by status.
// Query params: status, page (default 1), page_size (default 20, max 100).
func (h *PostsHandler) List(c *gin.Context) {
	status := domain.PostStatus(c.Query("status"))
	if !validStatusFilter(status) {
		fail(c, http.StatusBadRequest, CodeBadRequest, "unknown status filter")
		return
	}

	page := utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	ctx := c.Request.Context()
	total, err := repo.CountPosts(ctx, h.DB, status)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "could not count posts")
		return
	}
	items, err := repo.ListPostsPage(ctx, h.DB, status, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "could not list posts")
		return
	}
	if items == nil {
		items = []domain.Post{}
	}
	ok(c, postsPage{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Get returns a single post by id.
func (h *PostsHandler) Get(c *gin.Context) {
	p, err := repo.GetPost(c.Request.Context(), h.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, CodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, CodeInternalError, "could not load post")
		return
	}
	ok(c, p)
}
