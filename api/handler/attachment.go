package handler

import (
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/pkg/httpcontext"
	attachmentUC "github.com/synergysphere/backend/usecase/attachment"
)

type AttachmentHandler struct {
	baseHandler
	uc *attachmentUC.UseCase
}

func NewAttachmentHandler(uc *attachmentUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Upload an attachment
// @Tags attachments
// @Router /api/v1/projects/{id}/attachments [post]
func (h *AttachmentHandler) Upload(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	projectID := routeParam(ctx, "id")
	if projectID == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		h.respondInvalid(ctx, "multipart form expected")
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		h.respondInvalid(ctx, "a file field is required")
		return
	}
	header := files[0]

	src, err := header.Open()
	if err != nil {
		h.respondInvalid(ctx, "failed to read uploaded file")
		return
	}
	defer src.Close()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	att, err := h.uc.Upload(stdCtx, identity, attachmentUC.UploadInput{
		ProjectID:    projectID,
		TaskID:       formValue(form.Value, "task_id"),
		Description:  formValue(form.Value, "description"),
		IsPublic:     formValue(form.Value, "is_public") == "true",
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Content:      src,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, att)
}

// @Summary List a project's attachments
// @Tags attachments
// @Router /api/v1/projects/{id}/attachments [get]
func (h *AttachmentHandler) List(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	projectID := routeParam(ctx, "id")
	if projectID == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 50)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	attachments, total, err := h.uc.List(stdCtx, identity, projectID, page, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, attachments, page, limit, total)
}

// @Summary Download an attachment
// @Tags attachments
// @Router /api/v1/attachments/{id}/download [get]
func (h *AttachmentHandler) Download(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing attachment id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	att, rc, err := h.uc.Download(stdCtx, identity, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	contentType := att.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Response.Header.SetContentType(contentType)
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", att.OriginalName))
	ctx.SetBodyStream(rc, int(att.Size))
}

// @Summary Delete an attachment
// @Tags attachments
// @Router /api/v1/attachments/{id} [delete]
func (h *AttachmentHandler) Delete(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing attachment id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, identity, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
