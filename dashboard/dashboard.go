// Package dashboard serves the query facade as a JSON API for live
// visualization. It consumes the facade only and never reaches into
// registry internals.
package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pulseboard/query"
	"github.com/pulseboard/pulseboard/registry"
)

// Handler exposes dashboard routes over one query facade.
type Handler struct {
	facade *query.Facade
}

// New creates a handler over f.
func New(f *query.Facade) *Handler {
	return &Handler{facade: f}
}

// Register mounts the dashboard routes:
//
//	GET /metrics                  list all metrics
//	GET /metrics/tree?path=a.b    browse namespace children and leaves
//	GET /metrics/search?q=lat p99 fuzzy-search metric names
//	GET /metrics/series?id=<key>  fetch one metric's retained series
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/metrics", h.list)
	r.GET("/metrics/tree", h.tree)
	r.GET("/metrics/search", h.search)
	r.GET("/metrics/series", h.series)
}

type metricView struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Kind   string           `json:"kind"`
	Labels []registry.Label `json:"labels,omitempty"`
}

func toView(m registry.MetricInfo) metricView {
	return metricView{
		ID:     m.Key.String(),
		Name:   m.Key.Name(),
		Kind:   m.Kind.String(),
		Labels: m.Key.Labels(),
	}
}

func (h *Handler) list(c *gin.Context) {
	metrics := h.facade.ListMetrics()
	out := make([]metricView, len(metrics))
	for i, m := range metrics {
		out[i] = toView(m)
	}
	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

func (h *Handler) tree(c *gin.Context) {
	var path []string
	if p := c.Query("path"); p != "" {
		path = strings.Split(p, h.facade.Separator())
	}
	leaves := h.facade.TreeLeaves(path...)
	views := make([]metricView, len(leaves))
	for i, m := range leaves {
		views[i] = toView(m)
	}
	c.JSON(http.StatusOK, gin.H{
		"children": h.facade.TreeChildren(path...),
		"leaves":   views,
	})
}

func (h *Handler) search(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.facade.Search(c.Query("q"))})
}

func (h *Handler) series(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id parameter"})
		return
	}
	snap, err := h.facade.SeriesByID(id)
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        snap.Key.String(),
		"kind":      snap.Kind.String(),
		"samples":   snap.Samples,
		"summaries": snap.Summaries,
	})
}
