package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tenderquote/internal/app"
	"tenderquote/internal/transport/http/response"
)

type GenerationHandler struct {
	genService *app.GenerationService
}

type GenerateQuoteRequest struct {
	TenderID          uint   `json:"tender_id" binding:"required,gt=0"`
	TemplateIDs       []uint `json:"template_ids"`
	AdditionalContext string `json:"additional_context"`
}

func NewGenerationHandler(genService *app.GenerationService) *GenerationHandler {
	return &GenerationHandler{genService: genService}
}

// GenerateQuote starts a quote generation job and streams its progress as
// SSE. Validation failures surface as plain HTTP errors; once the stream is
// open every failure rides the event channel instead.
func (h *GenerationHandler) GenerateQuote(c *gin.Context) {
	var req GenerateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	run, err := h.genService.StartQuote(c.Request.Context(), app.QuoteInput{
		TenderDocumentID:  req.TenderID,
		TemplateIDs:       req.TemplateIDs,
		AdditionalContext: req.AdditionalContext,
	})
	if err != nil {
		h.startError(c, err)
		return
	}

	sink, ok := newSSESink(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	run.Stream(c.Request.Context(), sink)
}

// AnalyzeTender streams a tender analysis as SSE.
func (h *GenerationHandler) AnalyzeTender(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid tender id")
		return
	}

	run, err := h.genService.StartAnalysis(c.Request.Context(), uint(id64))
	if err != nil {
		h.startError(c, err)
		return
	}

	sink, ok := newSSESink(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	run.Stream(c.Request.Context(), sink)
}

func (h *GenerationHandler) History(c *gin.Context) {
	var sourceID uint
	if raw := c.Query("source_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid source_id")
			return
		}
		sourceID = uint(parsed)
	}

	entries, err := h.genService.History(sourceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list history failed")
		return
	}
	response.OK(c, entries)
}

func (h *GenerationHandler) Models(c *gin.Context) {
	names, err := h.genService.Models(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.CodeInferenceDown, err.Error())
		return
	}
	response.OK(c, gin.H{"models": names})
}

func (h *GenerationHandler) startError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrPrecondition):
		response.Error(c, http.StatusConflict, response.CodePrecondition, err.Error())
	case errors.Is(err, app.ErrInference):
		response.Error(c, http.StatusBadGateway, response.CodeInferenceDown, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "start generation failed")
	}
}
