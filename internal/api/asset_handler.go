package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"skillswipe/internal/api/middleware"
	"skillswipe/internal/profile"
	"skillswipe/internal/storage"
)

const (
	assetURLTTL        = 15 * time.Minute
	defaultUploadBytes = 5 << 20
)

// 允许上传的图片类型及其扩展名。
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

var errMaliciousFile = errors.New("malicious file detected")

// objectStorage 是 *storage.Client 的子集。
type objectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// VirusScanner 在对象落盘前扫描内容。
type VirusScanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 扫描。
type ClamdScanner struct {
	Addr string
}

func (s ClamdScanner) Scan(r io.Reader) error {
	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := clamd.NewClamd(s.Addr).ScanStream(r, abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	infected := false
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			infected = true
		}
	}
	if infected {
		return errMaliciousFile
	}
	return nil
}

// assetURLs 为资料视图签发头像与 Logo 的临时链接。
type assetURLs struct {
	storage objectStorage
	logger  *slog.Logger
}

func (a assetURLs) sign(ctx context.Context, objectKey string) string {
	if a.storage == nil || !isValidAssetObjectKey(objectKey) {
		return ""
	}
	url, err := a.storage.GeneratePresignedURL(ctx, objectKey, assetURLTTL)
	if err != nil {
		a.logger.Warn("generate asset url failed", slog.String("objectKey", objectKey), slog.Any("error", err))
		return ""
	}
	return url
}

func (a assetURLs) developer(ctx context.Context, p profile.PublicDeveloper) profile.PublicDeveloper {
	p.AvatarURL = a.sign(ctx, p.AvatarObjectKey)
	return p
}

func (a assetURLs) developers(ctx context.Context, list []profile.PublicDeveloper) []profile.PublicDeveloper {
	for i := range list {
		list[i] = a.developer(ctx, list[i])
	}
	return list
}

func (a assetURLs) company(ctx context.Context, c profile.PublicCompany) profile.PublicCompany {
	c.LogoURL = a.sign(ctx, c.LogoObjectKey)
	return c
}

// AssetHandler 负责头像与公司 Logo 上传。
type AssetHandler struct {
	profiles *profile.Service
	Storage  objectStorage
	Scanner  VirusScanner
	Logger   *slog.Logger
	MaxBytes int64
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(profiles *profile.Service, storageClient objectStorage, scanner VirusScanner, logger *slog.Logger, maxBytes int64) *AssetHandler {
	if maxBytes <= 0 {
		maxBytes = defaultUploadBytes
	}
	return &AssetHandler{
		profiles: profiles,
		Storage:  storageClient,
		Scanner:  scanner,
		Logger:   logger,
		MaxBytes: maxBytes,
	}
}

// UploadAvatar 上传开发者头像。
func (h *AssetHandler) UploadAvatar(c *gin.Context) {
	h.upload(c, avatarPrefix, h.profiles.SetDeveloperAvatar)
}

// UploadLogo 上传公司 Logo，仅 admin/hr 成员可操作。
func (h *AssetHandler) UploadLogo(c *gin.Context) {
	h.upload(c, logoPrefix, h.profiles.SetCompanyLogo)
}

type assetSetter func(ctx context.Context, userID, objectKey string) (string, error)

// upload 校验、扫描并保存图片，随后把对象键写入资料，旧对象会被删除。
func (h *AssetHandler) upload(c *gin.Context, prefix string, set assetSetter) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	logger := middleware.LoggerFromContextOr(c, h.Logger).With(slog.String("user_id", userID))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 || file.Size > h.MaxBytes {
		Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file must be between 1 byte and %d bytes", h.MaxBytes))
		return
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(fileReader, h.MaxBytes+1))
	fileReader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	contentType := mimetype.Detect(data).String()
	ext, allowed := imageExtensions[contentType]
	if !allowed {
		Error(c, http.StatusUnsupportedMediaType, "only png, jpeg and webp images are allowed")
		return
	}

	if h.Scanner != nil {
		if err := h.Scanner.Scan(bytes.NewReader(data)); err != nil {
			if errors.Is(err, errMaliciousFile) {
				logger.Warn("malicious upload rejected")
				BadRequest(c, "malicious file detected")
				return
			}
			logger.Error("scan file", slog.String("error", err.Error()))
			Internal(c, "failed to scan file")
			return
		}
	}

	ctx := c.Request.Context()
	objectKey := fmt.Sprintf("%s%s/%s%s", prefix, userID, uuid.NewString(), ext)
	if _, err := h.Storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	previous, err := set(ctx, userID, objectKey)
	if err != nil {
		if delErr := h.Storage.DeleteObject(ctx, objectKey); delErr != nil {
			logger.Warn("cleanup uploaded object failed", slog.String("objectKey", objectKey), slog.Any("error", delErr))
		}
		respondError(c, err)
		return
	}
	if previous != "" && previous != objectKey {
		if err := h.Storage.DeleteObject(ctx, previous); err != nil && !storage.IsNoSuchKey(err) {
			logger.Warn("delete previous object failed", slog.String("objectKey", previous), slog.Any("error", err))
		}
	}

	urls := assetURLs{storage: h.Storage, logger: logger}
	c.JSON(http.StatusCreated, gin.H{"object_key": objectKey, "url": urls.sign(ctx, objectKey)})
}
