package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/service"
	"bornfit/backend/pkg/response"
)

// ManualBlockHandler 手动占用时段模块 HTTP 处理器
type ManualBlockHandler struct {
	blockSvc service.ManualBlockService
}

// NewManualBlockHandler 创建 ManualBlockHandler
func NewManualBlockHandler(blockSvc service.ManualBlockService) *ManualBlockHandler {
	return &ManualBlockHandler{blockSvc: blockSvc}
}

// CreateBlock 创建手动占用时段
// POST /api/v1/manual-blocks
func (h *ManualBlockHandler) CreateBlock(c *gin.Context) {
	var req dto.CreateManualBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	block, err := h.blockSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBlockError(c, err)
		return
	}

	response.Created(c, block)
}

// ImportBlocks 从 ICS 批量导入占用时段
// POST /api/v1/manual-blocks/import （multipart 文件字段 file，或表单 url）
func (h *ManualBlockHandler) ImportBlocks(c *gin.Context) {
	var req dto.ImportBlocksRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 优先取上传的文件，没有文件时 Service 按 url 拉取
	var reader io.Reader
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			response.BadRequest(c, 15004, "读取上传文件失败")
			return
		}
		defer f.Close()
		reader = f
	}

	result, err := h.blockSvc.Import(c.Request.Context(), &req, reader, callerID)
	if err != nil {
		h.handleBlockError(c, err)
		return
	}

	response.Created(c, result)
}

// handleBlockError 统一处理手动占用时段模块业务错误
func (h *ManualBlockHandler) handleBlockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBlockStaffGone):
		response.BadRequest(c, 15005, "员工不存在或已停用")
	case errors.Is(err, service.ErrBlockTimeInvalid):
		response.BadRequest(c, 15006, err.Error())
	case errors.Is(err, service.ErrImportSourceGone):
		response.BadRequest(c, 15007, "ICS 导入需提供 URL 或上传文件")
	default:
		response.InternalError(c)
	}
}
