// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the competition feed and the match engine over
// HTTP.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/match"
)

// Queries without an explicit travel distance get this radius.
const defaultMaxDistanceMiles = 25

// Server serves the stored feed and on-demand match queries.
type Server struct {
	repo   feed.CompetitionRepository
	engine *match.Engine
	addr   string
}

// NewServer creates a server on top of a competition repository and a
// match engine.
func NewServer(repo feed.CompetitionRepository, engine *match.Engine, addr string) *Server {
	if addr == "" {
		addr = "localhost:8080"
	}

	return &Server{repo: repo, engine: engine, addr: addr}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.health)
	r.GET("/api/competitions", s.listCompetitions)
	r.GET("/api/matches", s.queryMatches)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(s.addr)
}

func (s *Server) health(ctx *gin.Context) {
	count, err := s.repo.CountCompetitions()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "competitions": count})
}

func (s *Server) listCompetitions(ctx *gin.Context) {
	competitions, err := s.repo.Competitions()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, competitions)
}

// queryMatches ranks the stored feed around an ad-hoc postcode, the
// same way a batch run would for a subscribed user.
func (s *Server) queryMatches(ctx *gin.Context) {
	postcode := ctx.Query("postcode")
	if postcode == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "postcode query parameter is required"})

		return
	}

	maxDistance := float64(defaultMaxDistanceMiles)

	if param := ctx.Query("distance"); param != "" {
		parsed, err := strconv.ParseFloat(param, 64)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "distance must be a positive number of miles"})

			return
		}

		maxDistance = parsed
	}

	competitions, err := s.repo.Competitions()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	user := match.User{
		Name:             "api query",
		Postcode:         postcode,
		MaxDistanceMiles: maxDistance,
	}

	report := s.engine.Match(ctx.Request.Context(), user, competitions)
	if report.Failed() {
		status := http.StatusBadGateway
		if report.Failure.Kind == match.FailureUser {
			status = http.StatusBadRequest
		}

		ctx.JSON(status, gin.H{"error": report.Failure.Message})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"postcode":       postcode,
		"distance_miles": maxDistance,
		"matches":        report.Matches,
		"stats":          report.Stats,
		"skipped_venues": report.SkippedVenues,
	})
}
