package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/repositories"
	"github.com/Dosada05/mafia-overlay/storage"
	"github.com/google/uuid"
)

var ErrPlayerNicknameRequired = errors.New("player nickname is required")

const photoKeyPrefix = "players/"

type PlayerService interface {
	CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	SearchPlayers(ctx context.Context, query string) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, input PlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id uuid.UUID) error

	UploadPhoto(ctx context.Context, file io.Reader, size int64, contentType string) (*PhotoUpload, error)
	DeletePhoto(ctx context.Context, filename string) error
}

type PlayerInput struct {
	Nickname *string `json:"nickname"`
	PhotoURL *string `json:"photo_url"`
}

type PhotoUpload struct {
	PhotoURL string `json:"photo_url"`
	Filename string `json:"filename"`
}

type playerService struct {
	playerRepo   repositories.PlayerRepository
	uploader     storage.FileUploader
	maxPhotoSize int64
	logger       *slog.Logger
}

// NewPlayerService: uploader может быть nil, тогда загрузка фото отключена.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, maxPhotoSize int64, logger *slog.Logger) PlayerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &playerService{
		playerRepo:   playerRepo,
		uploader:     uploader,
		maxPhotoSize: maxPhotoSize,
		logger:       logger.With(slog.String("service", "player")),
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error) {
	if input.Nickname == nil || strings.TrimSpace(*input.Nickname) == "" {
		return nil, ErrPlayerNicknameRequired
	}
	p := &models.Player{
		Nickname: strings.TrimSpace(*input.Nickname),
		PhotoURL: emptyToNil(input.PhotoURL),
	}
	if err := s.playerRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return p, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	return p, nil
}

func (s *playerService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) SearchPlayers(ctx context.Context, query string) ([]models.Player, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Player{}, nil
	}
	players, err := s.playerRepo.Search(ctx, query, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	return players, nil
}

// UpdatePlayer: пустая строка в photo_url удаляет ссылку на фото.
func (s *playerService) UpdatePlayer(ctx context.Context, id uuid.UUID, input PlayerInput) (*models.Player, error) {
	p, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			return nil, ErrPlayerNicknameRequired
		}
		p.Nickname = nickname
	}
	if input.PhotoURL != nil {
		p.PhotoURL = emptyToNil(input.PhotoURL)
	}
	if err := s.playerRepo.Update(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to update player %s: %w", id, err)
	}
	return p, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return ErrPlayerNotFound
		case errors.Is(err, repositories.ErrPlayerInUse):
			return ErrPlayerInUse
		}
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}
	return nil
}

func (s *playerService) UploadPhoto(ctx context.Context, file io.Reader, size int64, contentType string) (*PhotoUpload, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if s.maxPhotoSize > 0 && size > s.maxPhotoSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxPhotoSize)
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, ErrInvalidFileType
	}

	filename := uuid.NewString() + ext
	result, err := s.uploader.Upload(ctx, photoKeyPrefix+filename, contentType, file)
	if err != nil {
		s.logger.ErrorContext(ctx, "Photo upload failed", slog.String("filename", filename), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrStorageOperation, err)
	}
	s.logger.InfoContext(ctx, "Photo uploaded", slog.String("key", result.Key), slog.Int64("size", size))
	return &PhotoUpload{PhotoURL: result.Location, Filename: filename}, nil
}

func (s *playerService) DeletePhoto(ctx context.Context, filename string) error {
	if s.uploader == nil {
		return ErrUploadsDisabled
	}
	if filename == "" || filename != path.Base(filename) || strings.HasPrefix(filename, ".") {
		return ErrInvalidFileName
	}
	if err := s.uploader.Delete(ctx, photoKeyPrefix+filename); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageOperation, err)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
