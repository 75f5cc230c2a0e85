package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"showroom/inventory"
	"showroom/recommend"
)

func (s *Server) listCars(c *gin.Context) {
	var (
		records []inventory.Record
		err     error
	)
	if r, ok := s.catalog.(refresher); ok && c.Query("refresh") == "true" {
		records, err = r.Refresh(c.Request.Context())
	} else {
		records, err = s.catalog.Load(c.Request.Context())
	}
	if err != nil {
		s.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

func (s *Server) getCar(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "car not found"})
		return
	}

	records, err := s.catalog.Load(c.Request.Context())
	if err != nil {
		s.catalogError(c, err)
		return
	}

	rec, ok := inventory.Find(records, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "car not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

type recommendRequest struct {
	Query string `json:"query"`
}

func (s *Server) aiRecommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	recs, err := s.recommender.Recommend(c.Request.Context(), req.Query)
	switch {
	case errors.Is(err, recommend.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Query is required"})
		return
	case err != nil:
		s.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"recommendations": recs,
	})
}

func (s *Server) catalogError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, inventory.ErrSourceUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "inventory is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}
