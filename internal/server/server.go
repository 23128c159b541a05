// Package server exposes a composed datastore over HTTP. It is process
// wiring only: every storage semantic lives in the store it serves.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/store"
	"datastore/internal/stream"
)

type WriteRequest struct {
	Value string `json:"value" binding:"required"`
}

type ReadResponse struct {
	Success bool   `json:"success"`
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

type WriteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ContainsResponse struct {
	Success bool   `json:"success"`
	Exists  bool   `json:"exists"`
	Error   string `json:"error,omitempty"`
}

type QueryEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type QueryResponse struct {
	Success bool         `json:"success"`
	Entries []QueryEntry `json:"entries"`
	Error   string       `json:"error,omitempty"`
}

// RestServer serves the datastore API over a gin engine.
type RestServer struct {
	engine *gin.Engine
	store  store.Datastore
}

// New wires the routes over the given store.
func New(ds store.Datastore) *RestServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &RestServer{engine: engine, store: ds}

	api := engine.Group("/api")
	api.GET("/data/*key", s.handleRead)
	api.POST("/data/*key", s.handleWrite)
	api.DELETE("/data/*key", s.handleDelete)
	api.GET("/contains/*key", s.handleContains)
	api.GET("/query/*key", s.handleQuery)

	return s
}

// Handler returns the HTTP handler, for mounting on an http.Server.
func (s *RestServer) Handler() http.Handler {
	return s.engine
}

func (s *RestServer) handleRead(ctx *gin.Context) {
	k := key.New(ctx.Param("key"))

	value, err := s.store.Get(ctx.Request.Context(), k)
	if errors.Is(err, store.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, ReadResponse{Success: false, Error: "not found"})
		return
	}
	if err != nil {
		logrus.WithField("key", k.String()).WithError(err).Error("read failed")
		ctx.JSON(http.StatusInternalServerError, ReadResponse{Success: false, Error: err.Error()})
		return
	}

	raw, err := value.Collect()
	if err != nil {
		logrus.WithField("key", k.String()).WithError(err).Error("read failed")
		ctx.JSON(http.StatusInternalServerError, ReadResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, ReadResponse{Success: true, Value: string(raw)})
}

func (s *RestServer) handleWrite(ctx *gin.Context) {
	k := key.New(ctx.Param("key"))

	var req WriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, WriteResponse{Success: false, Error: err.Error()})
		return
	}

	if err := s.store.Put(ctx.Request.Context(), k, stream.FromBytes([]byte(req.Value))); err != nil {
		logrus.WithField("key", k.String()).WithError(err).Error("write failed")
		ctx.JSON(http.StatusInternalServerError, WriteResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, WriteResponse{Success: true})
}

func (s *RestServer) handleDelete(ctx *gin.Context) {
	k := key.New(ctx.Param("key"))

	err := s.store.Delete(ctx.Request.Context(), k)
	if errors.Is(err, store.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, DeleteResponse{Success: false, Error: "not found"})
		return
	}
	if err != nil {
		logrus.WithField("key", k.String()).WithError(err).Error("delete failed")
		ctx.JSON(http.StatusInternalServerError, DeleteResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, DeleteResponse{Success: true})
}

func (s *RestServer) handleContains(ctx *gin.Context) {
	k := key.New(ctx.Param("key"))

	exists, err := s.store.Contains(ctx.Request.Context(), k)
	if err != nil {
		logrus.WithField("key", k.String()).WithError(err).Error("contains failed")
		ctx.JSON(http.StatusInternalServerError, ContainsResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, ContainsResponse{Success: true, Exists: exists})
}

func (s *RestServer) handleQuery(ctx *gin.Context) {
	q := query.Query{Key: key.New(ctx.Param("key"))}

	var err error
	if q.Offset, err = strconv.Atoi(ctx.DefaultQuery("offset", "0")); err != nil || q.Offset < 0 {
		ctx.JSON(http.StatusBadRequest, QueryResponse{Success: false, Error: "invalid offset"})
		return
	}
	if q.Limit, err = strconv.Atoi(ctx.DefaultQuery("limit", "0")); err != nil || q.Limit < 0 {
		ctx.JSON(http.StatusBadRequest, QueryResponse{Success: false, Error: "invalid limit"})
		return
	}

	cur, err := s.store.Query(ctx.Request.Context(), q)
	if err != nil {
		logrus.WithField("key", q.Key.String()).WithError(err).Error("query failed")
		ctx.JSON(http.StatusInternalServerError, QueryResponse{Success: false, Error: err.Error()})
		return
	}

	results, err := cur.Rest()
	if err != nil {
		logrus.WithField("key", q.Key.String()).WithError(err).Error("query failed")
		ctx.JSON(http.StatusInternalServerError, QueryResponse{Success: false, Error: err.Error()})
		return
	}

	entries := make([]QueryEntry, 0, len(results))
	for _, e := range results {
		entries = append(entries, QueryEntry{Key: e.Key.String(), Value: string(e.Value)})
	}
	ctx.JSON(http.StatusOK, QueryResponse{Success: true, Entries: entries})
}
