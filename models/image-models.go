package models

// CardImage is one row of the image index: a card and the hosted URL of one of its images.
type CardImage struct {
	ID     int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CardID int64  `json:"card_id" gorm:"not null;index"`
	URL    string `json:"url" gorm:"column:url;not null"`
}

func (CardImage) TableName() string {
	return "card-images"
}

type CardImageResponse struct {
	ID     int64  `json:"id"`
	CardID int64  `json:"card_id"`
	URL    string `json:"url"`
}

type NewImageID struct {
	ID int64 `json:"id"`
}

// ToResponse copies the persisted columns into the API shape one field at a time,
// so a column added to the table is never exposed by accident.
func ToResponse(img CardImage) CardImageResponse {
	return CardImageResponse{
		ID:     img.ID,
		CardID: img.CardID,
		URL:    img.URL,
	}
}

func ToResponses(imgs []CardImage) []CardImageResponse {
	out := make([]CardImageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, ToResponse(img))
	}
	return out
}
