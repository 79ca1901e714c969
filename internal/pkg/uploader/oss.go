package uploader

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"recipe_community/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// SignedUpload 客户端直传凭证
type SignedUpload struct {
	UploadURL string    `json:"uploadUrl"` // PUT 地址
	PublicURL string    `json:"publicUrl"` // 上传完成后的访问地址
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Uploader interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error)
	SignUpload(ctx context.Context, filename, contentType string) (*SignedUpload, error)
}

type AliyunOSSUploader struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("oss config is missing")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	if cfg.SignExpire <= 0 {
		cfg.SignExpire = 600
	}
	return &AliyunOSSUploader{bucket: bucket, config: cfg}, nil
}

func (u *AliyunOSSUploader) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := ObjectKey(file.Filename, time.Now())
	opts := []oss.Option{oss.WithContext(ctx)}
	if ct := file.Header.Get("Content-Type"); ct != "" {
		opts = append(opts, oss.ContentType(ct))
	}
	if err := u.bucket.PutObject(key, src, opts...); err != nil {
		return "", err
	}
	return u.publicURL(key), nil
}

// SignUpload 生成限时 PUT 签名地址，客户端直传 OSS
func (u *AliyunOSSUploader) SignUpload(ctx context.Context, filename, contentType string) (*SignedUpload, error) {
	key := ObjectKey(filename, time.Now())

	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	signed, err := u.bucket.SignURL(key, oss.HTTPPut, u.config.SignExpire, opts...)
	if err != nil {
		return nil, err
	}

	return &SignedUpload{
		UploadURL: signed,
		PublicURL: u.publicURL(key),
		ObjectKey: key,
		ExpiresAt: time.Now().Add(time.Duration(u.config.SignExpire) * time.Second),
	}, nil
}

func (u *AliyunOSSUploader) publicURL(key string) string {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(u.config.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, endpoint, key)
}

// ObjectKey 生成对象名：YYYYMMDD/uuid.ext
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(path.Base(filename)))
	return fmt.Sprintf("%s/%s%s", now.Format("20060102"), uuid.New().String(), ext)
}
