package handler

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"recipe_community/internal/pkg/uploader"
	"recipe_community/pkg/apperr"
	"recipe_community/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// 批量上传限制
const (
	MaxFilesPerRequest = 9
	MaxFileSize        = 20 << 20
	uploadParallelism  = 5
)

// allowedExt 菜谱图片与私信附件
var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
	".mp4": true, ".mov": true, ".pdf": true,
}

var errUploaderMissing = errors.New("uploader not configured")

type UploadHandler struct {
	uploader uploader.Uploader
}

// NewUploadHandler u 为 nil 时接口返回 500（OSS 未配置）
func NewUploadHandler(u uploader.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// SignInput 直传签名参数
type SignInput struct {
	Filename    string `json:"filename" binding:"required,notblank"`
	ContentType string `json:"contentType"`
}

func checkFile(f *multipart.FileHeader) error {
	if f.Size > MaxFileSize {
		return apperr.Validationf("%s exceeds %d MB", f.Filename, MaxFileSize>>20)
	}
	if !allowedExt[strings.ToLower(filepath.Ext(f.Filename))] {
		return apperr.Validationf("%s: unsupported file type", f.Filename)
	}
	return nil
}

// UploadFiles 上传文件 (支持批量)
// @Summary 上传文件到 OSS (支持批量)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Success 200 {object} response.Response{data=[]string} "URLs"
// @Router /upload [post]
func (h *UploadHandler) UploadFiles(c *gin.Context) {
	if h.uploader == nil {
		response.HandleError(c, apperr.Internal(errUploaderMissing))
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.HandleError(c, apperr.Validation("invalid form data"))
		return
	}

	files := form.File["files"]
	switch {
	case len(files) == 0:
		response.HandleError(c, apperr.Validation("no files uploaded"))
		return
	case len(files) > MaxFilesPerRequest:
		response.HandleError(c, apperr.Validationf("at most %d files per request", MaxFilesPerRequest))
		return
	}
	for _, f := range files {
		if err := checkFile(f); err != nil {
			response.HandleError(c, err)
			return
		}
	}

	// 按下标写回，结果顺序与上传顺序一致
	urls := make([]string, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(uploadParallelism)
	for i, f := range files {
		g.Go(func() error {
			url, err := h.uploader.UploadFile(ctx, f)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		response.HandleError(c, apperr.Internal(err))
		return
	}

	response.Success(c, urls)
}

// SignUpload 客户端直传凭证
// @Summary 获取 OSS 直传签名地址
// @Tags Common
// @Accept json
// @Produce json
// @Param input body SignInput true "文件信息"
// @Success 200 {object} response.Response{data=uploader.SignedUpload}
// @Router /upload/sign [post]
func (h *UploadHandler) SignUpload(c *gin.Context) {
	if h.uploader == nil {
		response.HandleError(c, apperr.Internal(errUploaderMissing))
		return
	}
	var input SignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.HandleError(c, apperr.Validation(err.Error()))
		return
	}
	if !allowedExt[strings.ToLower(filepath.Ext(input.Filename))] {
		response.HandleError(c, apperr.Validation("unsupported file type"))
		return
	}

	signed, err := h.uploader.SignUpload(c.Request.Context(), input.Filename, input.ContentType)
	if err != nil {
		response.HandleError(c, apperr.Internal(err))
		return
	}
	response.Success(c, signed)
}
