// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/resolver"
	"github.com/jcodagnone/geoscope/utils/logging"
)

type Server struct {
	resolver *resolver.Resolver
	log      *logging.Logger
}

func NewServer(r *resolver.Resolver, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}

	return &Server{resolver: r, log: log}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", s.healthz)
	r.POST("/api/resolve", s.resolve)
	r.GET("/api/lookup", s.lookup)

	return r
}

// Run serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		s.log.Debug("request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func (s *Server) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type resolveRequest struct {
	Query *string `json:"query"`
}

func (s *Server) resolve(ctx *gin.Context) {
	var req resolveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})

		return
	}

	if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})

		return
	}

	report, _ := strconv.ParseBool(ctx.Query("report"))

	res, err := s.resolver.Run(ctx.Request.Context(), *req.Query)
	if err != nil {
		status := statusFor(err)
		s.log.Warn("resolution failed", "query", *req.Query, "status", status, "error", err)
		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	if report {
		ctx.JSON(http.StatusOK, res)

		return
	}

	ctx.JSON(http.StatusOK, res.Answer)
}

func (s *Server) lookup(ctx *gin.Context) {
	name, ok := ctx.GetQuery("q")
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	res, err := s.resolver.Lookup(ctx.Request.Context(), name)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, resolver.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case gazetteer.IsTransportError(err), errors.Is(err, llm.ErrEngine), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
