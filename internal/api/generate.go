package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

func (s *Server) generate(c *gin.Context) {
	log := observe.Logger(c.Request.Context())

	var req therapy.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, therapy.CodeInvalidRequest, "request body is not valid JSON", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, therapy.CodeInvalidRequest, "request failed validation", err)
		return
	}

	ctx := c.Request.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, &req)
	switch {
	case err == nil:
	case errors.Is(err, therapy.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, therapy.CodeInvalidRequest, "request failed validation", err)
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn("generation aborted", "err", err)
		respondError(c, http.StatusServiceUnavailable, therapy.CodeServiceUnavailable, "generation did not finish in time", err)
		return
	default:
		log.Error("generation failed", "err", err)
		respondError(c, http.StatusInternalServerError, therapy.CodeGenerationFailed, "sentence generation failed", err)
		return
	}

	c.JSON(http.StatusOK, therapy.Response{Success: true, Data: res.Data()})
}

func respondError(c *gin.Context, status int, code therapy.ErrorCode, msg string, err error) {
	detail := therapy.ErrorDetail{Code: code, Message: msg}
	if err != nil {
		detail.Details = err.Error()
	}
	c.JSON(status, therapy.ErrorResponse{Success: false, Error: detail})
}
