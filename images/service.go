package images

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishkalaria12/card-images/models"
	"github.com/rs/zerolog/log"
)

// Index is the local id -> (card, url) mapping.
type Index interface {
	GetByID(ctx context.Context, id int64) (models.CardImage, error)
	ListByCard(ctx context.Context, cardID *int64) ([]models.CardImage, error)
	GetAnyByCard(ctx context.Context, cardID *int64) (models.CardImage, error)
	Insert(ctx context.Context, cardID int64, url string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Gateway stores image bytes with the hosting provider.
type Gateway interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Service keeps the index consistent with the hosting provider.
//
// Creation is hosting first: a record is only inserted once the provider has
// confirmed the upload. Deletion is index authoritative: the record is removed
// even when the provider fails to delete the object.
type Service struct {
	index   Index
	gateway Gateway
}

func NewService(index Index, gateway Gateway) *Service {
	return &Service{index: index, gateway: gateway}
}

func (s *Service) Get(ctx context.Context, id int64) (models.CardImage, error) {
	return s.index.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, cardID *int64) ([]models.CardImage, error) {
	return s.index.ListByCard(ctx, cardID)
}

func (s *Service) Any(ctx context.Context, cardID *int64) (models.CardImage, error) {
	return s.index.GetAnyByCard(ctx, cardID)
}

// Create uploads data and then records the returned URL under a new id.
func (s *Service) Create(ctx context.Context, cardID int64, filename string, data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty image", models.ErrInvalidInput)
	}

	url, err := s.gateway.Upload(ctx, filename, data)
	if err != nil {
		if !errors.Is(err, models.ErrUploadFailed) {
			err = fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
		}
		return 0, err
	}

	id, err := s.index.Insert(ctx, cardID, url)
	if err != nil {
		// The uploaded object is now orphaned at the provider.
		log.Error().Err(err).Int64("card_id", cardID).Str("url", url).
			Msg("image uploaded but not indexed, remote object leaked")
		return 0, fmt.Errorf("index uploaded image: %w", err)
	}

	log.Info().Int64("id", id).Int64("card_id", cardID).Str("url", url).Msg("card image created")
	return id, nil
}

// Delete removes the record with the given id, deleting the remote object on a best-effort basis.
func (s *Service) Delete(ctx context.Context, id int64) error {
	img, err := s.index.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gateway.Delete(ctx, img.URL); err != nil {
		log.Warn().Err(err).Int64("id", id).Str("url", img.URL).
			Msg("remote image delete failed, removing index record anyway")
	}

	if err := s.index.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("id", id).Int64("card_id", img.CardID).Msg("card image deleted")
	return nil
}
