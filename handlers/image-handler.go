package handler

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/card-images/middleware"
	"github.com/krishkalaria12/card-images/models"
	"github.com/rs/zerolog/log"
)

// ImageService is the subset of images.Service the HTTP layer needs.
type ImageService interface {
	Get(ctx context.Context, id int64) (models.CardImage, error)
	List(ctx context.Context, cardID *int64) ([]models.CardImage, error)
	Any(ctx context.Context, cardID *int64) (models.CardImage, error)
	Create(ctx context.Context, cardID int64, filename string, data []byte) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type ImageHandler struct {
	images ImageService
}

func NewImageHandler(images ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// ListImages handles GET /card-images?card_id=
func (h *ImageHandler) ListImages(c *fiber.Ctx) error {
	cardID, err := optionalCardID(c)
	if err != nil {
		return err
	}

	imgs, err := h.images.List(c.UserContext(), cardID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.ToResponses(imgs))
}

// AnyImage handles GET /card-images/any?card_id=
func (h *ImageHandler) AnyImage(c *fiber.Ctx) error {
	cardID, err := optionalCardID(c)
	if err != nil {
		return err
	}

	img, err := h.images.Any(c.UserContext(), cardID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No suitable image found")
		}
		return err
	}
	return c.Redirect(img.URL, fiber.StatusTemporaryRedirect)
}

// GetImage handles GET /card-images/:id
func (h *ImageHandler) GetImage(c *fiber.Ctx) error {
	id, err := imageID(c)
	if err != nil {
		return err
	}

	img, err := h.images.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Image with given ID not found")
		}
		return err
	}
	return c.Redirect(img.URL, fiber.StatusTemporaryRedirect)
}

// UploadImage handles POST /card-images?card_id= with the file in the "image" form field.
func (h *ImageHandler) UploadImage(c *fiber.Ctx) error {
	cardID, err := optionalCardID(c)
	if err != nil {
		return err
	}
	if cardID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "card_id is required")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file provided")
	}

	blobFile, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Error opening the file")
	}
	defer blobFile.Close()

	data, err := io.ReadAll(blobFile)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Error reading the file")
	}

	id, err := h.images.Create(c.UserContext(), *cardID, file.Filename, data)
	if err != nil {
		if errors.Is(err, models.ErrUploadFailed) {
			log.Error().Err(err).Int64("card_id", *cardID).Msg("hosting upload failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Couldn't upload image")
		}
		return err
	}

	if userID, ok := middleware.CurrentUser(c); ok {
		log.Info().Int64("user_id", userID).Int64("id", id).Msg("image uploaded")
	}
	return c.Status(fiber.StatusOK).JSON(models.NewImageID{ID: id})
}

// DeleteImage handles DELETE /card-images/:id
func (h *ImageHandler) DeleteImage(c *fiber.Ctx) error {
	id, err := imageID(c)
	if err != nil {
		return err
	}

	if err := h.images.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Image with given ID not found")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Image deleted",
		"data":    nil,
	})
}

func optionalCardID(c *fiber.Ctx) (*int64, error) {
	raw := c.Query("card_id")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "card_id must be an integer")
	}
	return &v, nil
}

func imageID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Image ID must be an integer")
	}
	return id, nil
}
