package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/models"
	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaService stores uploaded files in R2 and returns owned media items for
// a variant's media list.
type MediaService interface {
	SaveUpload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaItem, error)
	PublicURL(assetID string) string
}

type mediaService struct {
	cfg config.Config
	ma  repository.MediaAssetRepository
}

func NewMediaService(cfg config.Config, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{cfg: cfg, ma: ma}
}

var allowedMediaTypes = map[string]string{
	"jpg":  models.MediaTypeImage,
	"jpeg": models.MediaTypeImage,
	"png":  models.MediaTypeImage,
	"mp4":  models.MediaTypeVideo,
	"mov":  models.MediaTypeVideo,
}

func (s *mediaService) SaveUpload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaItem, error) {
	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	mediaType, ok := allowedMediaTypes[fileType.Extension]
	if !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.uploadToR2(ctx, id, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := models.MediaAsset{
		UserID:   userID,
		FileName: id,
		FileType: fileType.MIME.Value,
		FileURL:  s.PublicURL(id),
	}
	if _, err := s.ma.Create(ctx, nil, &asset); err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}

	return &models.MediaItem{Type: mediaType, AssetID: id}, nil
}

func (s *mediaService) PublicURL(assetID string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.R2.PublicURL, "/"), assetID)
}

func (s *mediaService) r2Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.R2.AccessKey, s.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.R2.AccountID))
	}), nil
}

func (s *mediaService) uploadToR2(ctx context.Context, key string, file []byte, contentType string) error {
	client, err := s.r2Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
