// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api defines the read-only review surface over the persisted
// analysis records: list analyzed videos, fetch a video's records, mint a
// short-lived streaming URL for the source video, and list recent run
// outcomes from the audit log. The pipeline itself never goes through this
// API; it exists for the review UI.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mwira/gcp-go-video-narrative/internal/core/services"
)

// StreamURLTTL bounds how long a minted streaming URL stays valid.
const StreamURLTTL = 15 * time.Minute

// Services bundles the data access dependencies the review routes use.
type Services struct {
	Analysis *services.AnalysisService
	Videos   *services.VideoService
	Audit    *services.AuditService
}

// Register attaches the review routes to the given router group.
func Register(r *gin.RouterGroup, s *Services) {
	videos := r.Group("/videos")
	{
		// GET /videos lists the IDs of all analyzed videos.
		videos.GET("", func(c *gin.Context) {
			ids, err := s.Analysis.ListVideos(c)
			if err != nil {
				slog.Error("failed to list videos", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, ids)
		})

		// GET /videos/:id/records?prefix=<key prefix> returns a video's
		// analysis records ordered by key. The prefix narrows to one
		// prompt version's records, e.g. "analysis-v3#".
		videos.GET("/:id/records", func(c *gin.Context) {
			records, err := s.Analysis.ListByVideo(c, c.Param("id"), c.Query("prefix"))
			if err != nil {
				slog.Error("failed to list records", "video", c.Param("id"), "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, records)
		})

		// GET /videos/:id/records/:key fetches one record by exact key.
		videos.GET("/:id/records/:key", func(c *gin.Context) {
			record, err := s.Analysis.Get(c, c.Param("id"), c.Param("key"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, record)
		})

		// GET /videos/:id/stream mints a signed streaming URL for the
		// source video. The source URI is taken from the video's
		// aggregate record, the only record that carries it.
		videos.GET("/:id/stream", func(c *gin.Context) {
			records, err := s.Analysis.ListByVideo(c, c.Param("id"), "")
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
				return
			}
			sourceURI := ""
			for _, record := range records {
				if record.VideoURI != "" {
					sourceURI = record.VideoURI
					break
				}
			}
			if sourceURI == "" {
				c.JSON(http.StatusNotFound, gin.H{"error": "video has no aggregate record"})
				return
			}
			signedURL, err := s.Videos.GenerateSignedURL(c, sourceURI, StreamURLTTL)
			if err != nil {
				slog.Error("failed to generate signed URL", "video", c.Param("id"), "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}

	runs := r.Group("/runs")
	{
		// GET /runs?count=<n> lists the most recent pipeline runs.
		runs.GET("", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", "20"))
			if err != nil || count < 1 {
				count = 20
			}
			records, err := s.Audit.ListRecent(c, count)
			if err != nil {
				slog.Error("failed to list recent runs", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, records)
		})
	}
}
