package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tenderquote/internal/app"
	"tenderquote/internal/model"
	"tenderquote/internal/transport/http/response"
)

type DocumentHandler struct {
	docService *app.DocumentService
}

func NewDocumentHandler(docService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload accepts a multipart form: file, doc_type (tender|template) and
// optional reference/title/description/is_template fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file provided")
		return
	}

	docType, ok := parseDocType(c.PostForm("doc_type"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "doc_type must be tender or template")
		return
	}

	// Reject on the declared size before buffering the whole body.
	if limit := h.docService.MaxFileSize(); limit > 0 && fileHeader.Size > limit {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file exceeds the size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable file")
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), app.UploadInput{
		Content:          content,
		OriginalFilename: fileHeader.Filename,
		DocumentType:     docType,
		Reference:        c.PostForm("reference"),
		Title:            c.PostForm("title"),
		Description:      c.PostForm("description"),
		IsTemplate:       c.PostForm("is_template") == "true" || c.PostForm("is_template") == "on",
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
		case errors.Is(err, app.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFormat, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, doc)
}

// List returns documents, filtered by ?category= and searched by ?search=.
func (h *DocumentHandler) List(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		docs, err := h.docService.Search(term)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
			return
		}
		response.OK(c, docs)
		return
	}

	category := c.Query("category")
	if category == "" {
		docs, err := h.docService.ListAll()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
			return
		}
		response.OK(c, docs)
		return
	}

	docType, ok := parseDocType(category)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown category")
		return
	}
	docs, err := h.docService.List(docType)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	doc, err := h.docService.Get(id)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get document failed")
		return
	}

	// Include a text preview without shipping the entire extraction.
	preview := doc.Text()
	if runes := []rune(preview); len(runes) > 2000 {
		preview = string(runes[:2000])
	}
	response.OK(c, gin.H{
		"document":     doc,
		"text_preview": preview,
	})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	path, downloadName, err := h.docService.ResolveDownload(id)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "generated document not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "download failed")
		return
	}

	c.FileAttachment(path, downloadName)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}

	response.OK(c, gin.H{"deleted_document_id": id})
}

func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.docService.Stats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stats failed")
		return
	}
	response.OK(c, stats)
}

func parseDocType(raw string) (string, bool) {
	switch raw {
	case "tender":
		return model.DocumentTypeTender, true
	case "template":
		return model.DocumentTypeTemplate, true
	case "generated":
		return model.DocumentTypeGenerated, true
	default:
		return "", false
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return 0, false
	}
	return uint(id64), true
}
