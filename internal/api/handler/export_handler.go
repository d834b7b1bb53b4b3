package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"crane-intelligence/backend/internal/service"
	"crane-intelligence/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportFallbackRequests 导出人工估值申请
// GET /api/v1/admin/fallback-requests/export?status=
func (h *ExportHandler) ExportFallbackRequests(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportFallbackRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRecords):
		response.NotFound(c, 16101, "暂无可导出的申请")
	case errors.Is(err, service.ErrInvalidStatusFilter):
		response.BadRequest(c, 12006, "无效的状态筛选条件")
	default:
		respondUnexpected(c, err)
	}
}
