// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storefront is the read-only HTTP gateway in front of the catalog
// service. It serves the filtered storefront listing and the navigation
// decisions for a bearer token, so that a browser page can render without
// talking to the catalog service directly.
//
// # Routes
//
//	GET /healthz                 liveness
//	GET /metrics                 Prometheus exposition
//	GET /api/storefront          ?category=&q= filtered listing
//	GET /api/navigation          links and route decisions for the caller
package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/routeguard"
	"github.com/ilneora/storefront/pkg/session"
	"github.com/ilneora/storefront/pkg/telemetry"
)

// ItemSource lists the catalog's items.
type ItemSource interface {
	ListItems(ctx context.Context) ([]catalog.Item, error)
}

// Server holds the gateway's dependencies.
type Server struct {
	source atomic.Pointer[sourceHolder]
	logger *slog.Logger
}

type sourceHolder struct {
	ItemSource
}

// NewServer creates a gateway reading from source.
func NewServer(source ItemSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger}
	s.SetSource(source)
	return s
}

// SetSource swaps the item source. In-flight requests finish on the old one.
func (s *Server) SetSource(source ItemSource) {
	s.source.Store(&sourceHolder{ItemSource: source})
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("storefront-gateway"))
	router.Use(requestID())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metricsHandler()))

	api := router.Group("/api")
	{
		api.GET("/storefront", s.handleStorefront)
		api.GET("/navigation", s.handleNavigation)
	}
	return router
}

func metricsHandler() http.Handler {
	if h := telemetry.MetricsHandler(); h != nil {
		return h
	}
	return promhttp.Handler()
}

// requestID reuses an inbound X-Request-ID or mints one, echoes it, and
// propagates it to outbound catalog calls.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(apiclient.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(apiclient.HeaderRequestID, id)
		c.Request = c.Request.WithContext(apiclient.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// ---- Listing ----

type itemJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

type listingJSON struct {
	State      string     `json:"state"`
	Filter     filterJSON `json:"filter"`
	Categories []string   `json:"categories"`
	Items      []itemJSON `json:"items"`
	Error      string     `json:"error,omitempty"`
}

type filterJSON struct {
	Category string `json:"category"`
	Search   string `json:"q"`
}

func (s *Server) handleStorefront(c *gin.Context) {
	filter := catalog.Filter{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	}

	items, err := s.source.Load().ListItems(c.Request.Context())
	if err != nil {
		s.logger.Warn("storefront fetch failed", "error", err)
		listing := catalog.FailedListing(filter, err)
		c.JSON(http.StatusBadGateway, listingJSON{
			State:      listing.Display().String(),
			Filter:     filterJSON(filter),
			Categories: []string{},
			Items:      []itemJSON{},
			Error:      apiclient.UserMessage(err),
		})
		return
	}

	listing := catalog.LoadedListing(catalog.NormalizeItems(items), filter)
	out := listingJSON{
		State:      listing.Display().String(),
		Filter:     filterJSON(filter),
		Categories: listing.View.Categories,
		Items:      make([]itemJSON, 0, len(listing.View.Items)),
	}
	for _, it := range listing.View.Items {
		out.Items = append(out.Items, itemJSON{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price.String(),
			Category:    it.Category.Name,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ---- Navigation ----

// bearerSession presents the request's bearer token as a session.
type bearerSession string

func (b bearerSession) Current(context.Context) (session.Session, bool, error) {
	if b == "" {
		return session.Session{}, false, nil
	}
	return session.Session{Token: string(b)}, true, nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type linkJSON struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Logout bool   `json:"logout,omitempty"`
}

func (s *Server) handleNavigation(c *gin.Context) {
	guard := routeguard.New(bearerSession(bearerToken(c)))
	ctx := c.Request.Context()

	links := guard.Links(ctx)
	outLinks := make([]linkJSON, len(links))
	for i, l := range links {
		outLinks[i] = linkJSON{Label: l.Label, Path: l.Route.Path, Logout: l.Logout}
	}

	routes := gin.H{}
	for _, r := range []routeguard.Route{routeguard.Home, routeguard.Login, routeguard.Dashboard} {
		v := guard.Decide(ctx, r)
		routes[r.Name] = gin.H{
			"decision": v.Decision.String(),
			"target":   v.Target(r).Path,
		}
	}

	c.JSON(http.StatusOK, gin.H{"links": outLinks, "routes": routes})
}
