package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/RogueTeam/volley/history"
	"github.com/RogueTeam/volley/transfers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Exposes batch execution and the batch journal over HTTP
type Router struct {
	// Controller running the batches
	Transfers *transfers.Controller
	// Journal where executed batches are stored
	History *history.Store
	// Base Gin Group to use for routing
	Base gin.IRoutes
}

const (
	IdParam           = "id"
	BatchesPath       = "/batches"
	BatchesPathWithId = BatchesPath + "/:" + IdParam
)

func (r *Router) createBatch(ctx *gin.Context) {
	var submit Submit
	err := ctx.ShouldBindJSON(&submit)
	if err != nil {
		ctx.AbortWithError(http.StatusBadRequest, err)
		return
	}

	requests, err := SubmitToTransfers(&submit)
	if err != nil {
		ctx.AbortWithError(http.StatusBadRequest, err)
		return
	}

	// Confirmation outlives a dropped client
	batch := r.Transfers.Run(context.WithoutCancel(ctx.Request.Context()), requests)

	err = r.History.Save(batch)
	if err != nil {
		ctx.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	out := BatchFromTransfers(&batch, true)
	ctx.JSON(http.StatusCreated, &out)
}

func (r *Router) listBatches(ctx *gin.Context) {
	batches, err := r.History.List()
	if err != nil {
		ctx.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	out := make([]Batch, 0, len(batches))
	for _, batch := range batches {
		out = append(out, BatchFromTransfers(&batch, false))
	}
	ctx.JSON(http.StatusOK, out)
}

func (r *Router) batchStatus(ctx *gin.Context) {
	rawId := ctx.Param(IdParam)
	id, err := uuid.Parse(rawId)
	if err != nil {
		ctx.AbortWithError(http.StatusBadRequest, err)
		return
	}

	batch, err := r.History.Get(id)
	switch {
	case err == nil:
		out := BatchFromTransfers(&batch, true)
		ctx.JSON(http.StatusOK, &out)
	case errors.Is(err, history.ErrBatchNotFound):
		ctx.AbortWithError(http.StatusNotFound, err)
	default:
		ctx.AbortWithError(http.StatusInternalServerError, err)
	}
}

// Register routes in the Gin engine
func (r *Router) Register() {
	r.Base.POST(BatchesPath, r.createBatch)
	r.Base.GET(BatchesPath, r.listBatches)
	r.Base.GET(BatchesPathWithId, r.batchStatus)
}
