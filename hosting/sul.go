package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/krishkalaria12/card-images/models"
	"github.com/rs/zerolog/log"
)

// SulGateway talks to the s-ul.eu upload API.
type SulGateway struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewSulGateway(baseURL, key string, timeout time.Duration) *SulGateway {
	return &SulGateway{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: timeout},
	}
}

type sulUploadResponse struct {
	URL string `json:"url"`
}

func (g *SulGateway) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("wizard", "true"); err != nil {
		return "", err
	}
	if err := mw.WriteField("key", g.key); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/upload", body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", models.ErrUploadFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("s-ul upload rejected")
		return "", fmt.Errorf("%w: s-ul returned status %d", models.ErrUploadFailed, resp.StatusCode)
	}

	var out sulUploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", models.ErrUploadFailed, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: response carried no url", models.ErrUploadFailed)
	}
	return out.URL, nil
}

func (g *SulGateway) Delete(ctx context.Context, imageURL string) error {
	q := url.Values{}
	q.Set("key", g.key)
	q.Set("file", ObjectName(imageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/delete.php?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("s-ul delete: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("s-ul delete returned status %d", resp.StatusCode)
	}
	return nil
}
