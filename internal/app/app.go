package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"alamedalearn/internal/util"
	"alamedalearn/pkg/content"
	"alamedalearn/pkg/domain"
	"alamedalearn/pkg/storage"
)

// defaultThumbnailURL is used when an upload arrives without a thumbnail.
const defaultThumbnailURL = "https://images.pexels.com/photos/1114690/pexels-photo-1114690.jpeg?auto=compress&cs=tinysrgb&w=800"

// Config holds runtime configuration for the core application.
type Config struct {
	Store *content.Store
	Media storage.MediaStore
}

// App wires media storage and the content store into upload and playback flows.
type App struct {
	store         *content.Store
	media         storage.MediaStore
	presignExpiry time.Duration
}

// New constructs the application service.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("content store required")
	}
	return &App{
		store:         cfg.Store,
		media:         cfg.Media,
		presignExpiry: 15 * time.Minute,
	}, nil
}

// Store exposes the underlying content store for read paths.
func (a *App) Store() *content.Store { return a.store }

// UploadInput describes an incoming video upload.
type UploadInput struct {
	Title       string
	Description string
	Category    string
	Duration    int
	Tags        []string

	// Filename and File carry the raw video payload; Size is required
	// by the object store. When File is nil the caller supplies
	// VideoURL directly (link-only uploads).
	Filename string
	File     io.Reader
	Size     int64
	VideoURL string

	ThumbnailURL string
}

// UploadVideo stores the video payload (when present) and records metadata.
func (a *App) UploadVideo(ctx context.Context, tutor domain.Identity, in UploadInput) (domain.Video, error) {
	videoURL := in.VideoURL
	storageKey := ""
	if in.File != nil {
		if a.media == nil {
			return domain.Video{}, errors.New("media storage not configured")
		}
		storageKey = storage.VideoKey(util.NewID(), in.Filename)
		if err := a.media.PutVideo(ctx, storageKey, in.File, in.Size, in.Filename); err != nil {
			return domain.Video{}, fmt.Errorf("save video file: %w", err)
		}
		url, err := a.media.PresignGet(ctx, storageKey, a.presignExpiry)
		if err != nil {
			_ = a.media.Delete(ctx, storageKey)
			return domain.Video{}, fmt.Errorf("resolve video url: %w", err)
		}
		videoURL = url
	}

	thumbnail := in.ThumbnailURL
	if thumbnail == "" {
		thumbnail = defaultThumbnailURL
	}

	video, err := a.store.UploadVideo(ctx, content.VideoInput{
		Title:        in.Title,
		Description:  in.Description,
		ThumbnailURL: thumbnail,
		VideoURL:     videoURL,
		TutorID:      tutor.UserID,
		TutorName:    tutor.Name,
		TutorAvatar:  tutor.AvatarURL,
		Duration:     in.Duration,
		Category:     in.Category,
		Tags:         in.Tags,
	})
	if err != nil && !content.IsDurabilityWarning(err) {
		if storageKey != "" {
			_ = a.media.Delete(ctx, storageKey)
		}
		return domain.Video{}, err
	}
	return video, err
}
