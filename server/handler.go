package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ByLCY/labelsheet/document"
	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/spreadsheet"
)

// DefaultMaxPages 是未配置 max_items 时单次请求允许的整页数。
const DefaultMaxPages = 80

type Handler struct {
	asm      *document.Assembler
	preview  *document.Preview
	maxItems int
	queues   *queueSet
}

// NewHandler 创建处理器；maxItems<=0 时按纸张每页格数 × DefaultMaxPages 计算。
func NewHandler(asm *document.Assembler, preview *document.Preview, maxItems int) *Handler {
	if maxItems <= 0 {
		maxItems = asm.Grid().LabelsPerPage() * DefaultMaxPages
	}
	return &Handler{asm: asm, preview: preview, maxItems: maxItems, queues: newQueueSet()}
}

func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.POST("/render", h.Render)
	r.POST("/layout", h.Layout)
	r.GET("/documents/:id", h.GetDocument)
	r.DELETE("/documents/:id", h.ReleaseDocument)
	r.GET("/previews/:session", h.GetPreview)
	r.PUT("/previews/:session", h.UpdatePreview)
	r.DELETE("/previews/:session", h.ClosePreview)
	r.POST("/import", h.Import)
	r.GET("/template", h.Template)
	r.POST("/export", h.Export)
	registerQueueRoutes(r, h)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := toHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, newErrDTO(err))
}

func (h *Handler) bindRender(c *gin.Context) (document.Request, bool) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrDTO(ErrInvalid("invalid json")))
		return document.Request{}, false
	}
	mode, err := label.ParseMode(req.Mode)
	if err != nil {
		h.fail(c, ErrInvalid(err.Error()))
		return document.Request{}, false
	}
	if len(req.Items) > h.maxItems {
		h.fail(c, ErrInvalid(fmt.Sprintf("条目数 %d 超过上限 %d", len(req.Items), h.maxItems)))
		return document.Request{}, false
	}
	items, err := toItems(mode, req.Items)
	if err != nil {
		h.fail(c, err)
		return document.Request{}, false
	}
	opts, err := req.options(h.asm.Grid())
	if err != nil {
		h.fail(c, err)
		return document.Request{}, false
	}
	return document.Request{Mode: mode, Items: items, Options: opts}, true
}

func (h *Handler) Render(c *gin.Context) {
	req, ok := h.bindRender(c)
	if !ok {
		return
	}
	handle, err := h.asm.Render(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handle)
}

// Layout 返回定位后的布局结果，前端用它标出溢出的标签。
func (h *Handler) Layout(c *gin.Context) {
	req, ok := h.bindRender(c)
	if !ok {
		return
	}
	res, err := h.asm.Layout(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := layout.EncodeDebugJSON(&buf, res); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (h *Handler) GetDocument(c *gin.Context) {
	handle, data, err := h.asm.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	disposition := "inline"
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, handle.Filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *Handler) ReleaseDocument(c *gin.Context) {
	if err := h.asm.Release(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetPreview(c *gin.Context) {
	handle, ok := h.preview.Current(c.Param("session"))
	if !ok {
		h.fail(c, ErrNotFound("预览不存在"))
		return
	}
	c.JSON(http.StatusOK, handle)
}

func (h *Handler) UpdatePreview(c *gin.Context) {
	req, ok := h.bindRender(c)
	if !ok {
		return
	}
	handle, err := h.preview.Update(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handle)
}

func (h *Handler) ClosePreview(c *gin.Context) {
	if err := h.preview.Close(c.Request.Context(), c.Param("session")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryMode(c *gin.Context) (label.Mode, error) {
	mode, err := label.ParseMode(c.DefaultQuery("mode", string(label.ModeProduct)))
	if err != nil {
		return "", ErrInvalid(err.Error())
	}
	return mode, nil
}

// uploadSource 取 multipart 的 file 字段；不是 multipart 时直接读请求体。
func uploadSource(c *gin.Context) (io.Reader, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingFile) {
			return c.Request.Body, func() {}, nil
		}
		return nil, nil, ErrInvalid(err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, ErrInvalid("无法读取上传文件")
	}
	return f, func() { f.Close() }, nil
}

// Import 接受 multipart 的 file 字段，或直接以请求体上传 CSV。
func (h *Handler) Import(c *gin.Context) {
	mode, err := queryMode(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	src, closeSrc, err := uploadSource(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeSrc()
	items, err := spreadsheet.Import(src, mode)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := ImportResponse{Mode: string(mode), Items: make([]ItemDTO, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, fromItem(it))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Template(c *gin.Context) {
	mode, err := queryMode(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := spreadsheet.Template(&buf, mode); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spreadsheet.TemplateFilename(mode)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) Export(c *gin.Context) {
	mode, err := queryMode(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrDTO(ErrInvalid("invalid json")))
		return
	}
	items, err := toItems(mode, req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := spreadsheet.Export(&buf, mode, items); err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("etiquetas_%s_%d.csv", mode, time.Now().UnixMilli())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
