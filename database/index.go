package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/krishkalaria12/card-images/models"
	"gorm.io/gorm"
)

// insertLockKey identifies the Postgres advisory lock taken while assigning IDs.
const insertLockKey = 0x63617264 // "card"

// ImageIndex is the authoritative id -> (card, url) mapping.
type ImageIndex struct {
	db *gorm.DB

	// mu serializes id assignment inside this process. Postgres deployments
	// additionally take an advisory lock so that replicas serialize as well.
	mu sync.Mutex
}

func NewImageIndex(db *gorm.DB) *ImageIndex {
	return &ImageIndex{db: db}
}

func (idx *ImageIndex) GetByID(ctx context.Context, id int64) (models.CardImage, error) {
	var img models.CardImage
	if err := idx.db.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CardImage{}, fmt.Errorf("card image %d: %w", id, models.ErrNotFound)
		}
		return models.CardImage{}, fmt.Errorf("get card image %d: %w", id, err)
	}
	return img, nil
}

// ListByCard returns every record, or only those of cardID when it is non-nil.
func (idx *ImageIndex) ListByCard(ctx context.Context, cardID *int64) ([]models.CardImage, error) {
	imgs := []models.CardImage{}
	if err := idx.byCard(ctx, cardID).Order("id").Find(&imgs).Error; err != nil {
		return nil, fmt.Errorf("list card images: %w", err)
	}
	return imgs, nil
}

// GetAnyByCard returns the first matching record in primary key order.
func (idx *ImageIndex) GetAnyByCard(ctx context.Context, cardID *int64) (models.CardImage, error) {
	var img models.CardImage
	if err := idx.byCard(ctx, cardID).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CardImage{}, fmt.Errorf("card image for card %s: %w", describeCard(cardID), models.ErrNotFound)
		}
		return models.CardImage{}, fmt.Errorf("get card image for card %s: %w", describeCard(cardID), err)
	}
	return img, nil
}

// Insert stores a new record under max(id)+1, or 0 for an empty index, and returns the id.
func (idx *ImageIndex) Insert(ctx context.Context, cardID int64, url string) (int64, error) {
	if url == "" {
		return 0, fmt.Errorf("%w: empty url", models.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var newID int64
	err := idx.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", insertLockKey).Error; err != nil {
				return fmt.Errorf("lock card images: %w", err)
			}
		}

		var maxID sql.NullInt64
		if err := tx.Model(&models.CardImage{}).Select("MAX(id)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("read max id: %w", err)
		}
		if maxID.Valid {
			newID = maxID.Int64 + 1
		}

		img := models.CardImage{ID: newID, CardID: cardID, URL: url}
		if err := tx.Create(&img).Error; err != nil {
			return fmt.Errorf("insert card image: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

func (idx *ImageIndex) Delete(ctx context.Context, id int64) error {
	res := idx.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CardImage{})
	if res.Error != nil {
		return fmt.Errorf("delete card image %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card image %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// Ping checks that the database answers a query against the index table.
func (idx *ImageIndex) Ping(ctx context.Context) error {
	var img models.CardImage
	err := idx.db.WithContext(ctx).Limit(1).Find(&img).Error
	if err != nil {
		return fmt.Errorf("%w: database: %v", models.ErrBackendUnavailable, err)
	}
	return nil
}

func (idx *ImageIndex) byCard(ctx context.Context, cardID *int64) *gorm.DB {
	q := idx.db.WithContext(ctx).Model(&models.CardImage{})
	if cardID != nil {
		q = q.Where("card_id = ?", *cardID)
	}
	return q
}

func describeCard(cardID *int64) string {
	if cardID == nil {
		return "any"
	}
	return fmt.Sprint(*cardID)
}
