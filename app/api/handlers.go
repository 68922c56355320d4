package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/database"
	"github.com/lysyi3m/folio/app/feed"
	"github.com/lysyi3m/folio/app/nav"
	"github.com/lysyi3m/folio/app/tasks"
)

// NewHandler wires the HTTP layer. viewRepo and scheduler may be nil.
func NewHandler(registry *blog.Registry, loader nav.PostLoader, viewRepo database.ViewRepository,
	scheduler tasks.TaskSchedulerInterface, siteTitle string) *Handler {
	return &Handler{
		registry:  registry,
		loader:    loader,
		generator: feed.NewGenerator(),
		viewRepo:  viewRepo,
		scheduler: scheduler,
		page:      parsePageTemplate(),
		siteTitle: siteTitle,
	}
}

func (h *Handler) GetIndex(c *gin.Context) {
	data, _ := h.renderPage(c.Request.Context(), "")
	h.writePage(c, http.StatusOK, data)
}

func (h *Handler) GetPostPage(c *gin.Context) {
	slug := c.Param("slug")

	data, view := h.renderPage(c.Request.Context(), "#"+slug)

	status := http.StatusOK
	if view.loaded {
		h.recordView(slug, !view.failed)
		if view.failed {
			status = http.StatusBadGateway
		}
	} else {
		slog.Debug("Unknown post slug, showing list", "slug", slug)
	}

	h.writePage(c, status, data)
}

func (h *Handler) writePage(c *gin.Context, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		slog.Error("Page rendering error", "state", data.State, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) APIListPosts(c *gin.Context) {
	posts := h.registry.Sorted()

	summaries := make([]postSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, newPostSummary(post))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": summaries,
		"total": len(summaries),
	})
}

func (h *Handler) APIGetPost(c *gin.Context) {
	slug := c.Param("slug")

	post, err := h.registry.BySlug(slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	rendered, err := h.loader.Load(c.Request.Context(), post)
	if err != nil {
		h.recordView(slug, false)

		var loadErr *content.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("Post load failed", "filename", loadErr.Filename, "error", loadErr.Err)
		} else {
			slog.Error("Post load failed", "filename", post.Filename, "error", err)
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error": content.DisplayMessage,
			"post":  newPostSummary(post),
		})
		return
	}

	h.recordView(slug, true)

	c.JSON(http.StatusOK, gin.H{
		"post": newPostSummary(rendered.Post),
		"html": rendered.HTML,
	})
}

func (h *Handler) APIResolve(c *gin.Context) {
	fragment := c.Query("fragment")

	post, ok := nav.Resolve(h.registry, fragment)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"state": nav.ListView.String()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": nav.PostView.String(),
		"post":  newPostSummary(post),
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	posts := h.registry.Sorted()

	rss, err := h.generator.Run(posts)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"posts":     h.registry.Count(),
	}

	if h.viewRepo != nil {
		if total, err := h.viewRepo.GetTotalViews(); err == nil {
			health["views"] = total
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	if h.viewRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "View statistics disabled"})
		return
	}

	stats, err := h.viewRepo.GetViewStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_view_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.viewRepo.GetTotalViews()
	if err != nil {
		slog.Error("Database error", "operation", "get_total_views", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       stats,
		"total_views": total,
	})
}

func (h *Handler) APIReloadRegistry(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background tasks disabled"})
		return
	}

	if err := h.scheduler.ReloadRegistry(); err != nil {
		slog.Error("Error enqueueing registry reload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Registry reload enqueued",
		"posts":   h.registry.Count(),
	})
}

func (h *Handler) recordView(slug string, succeeded bool) {
	if h.scheduler == nil {
		return
	}
	h.scheduler.RecordView(slug, succeeded)
}
