package imagehash

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// Декодеры регистрируются через image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

const (
	maxImageBytes   = 5 << 20
	downloadTimeout = 15 * time.Second
	hashImageSize   = 256
)

// PerceptionHasher реализует ImageHasherPort: скачивает изображение и
// строит перцептивный хэш. Близкие фото дают одинаковый или почти
// одинаковый хэш, что ловит кросс-посты с тем же снимком.
type PerceptionHasher struct {
	httpClient *http.Client
}

func NewPerceptionHasher() *PerceptionHasher {
	return &PerceptionHasher{
		httpClient: &http.Client{Timeout: downloadTimeout},
	}
}

func (h *PerceptionHasher) HashImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("image hasher: failed to build request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image hasher: failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image hasher: unexpected status %d for %s", resp.StatusCode, imageURL)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("image hasher: failed to decode image: %w", err)
	}

	// Уменьшение до фиксированного размера выравнивает хэши картинок,
	// отличающихся только разрешением
	scaled := resize.Thumbnail(hashImageSize, hashImageSize, img, resize.Lanczos3)

	hash, err := goimagehash.PerceptionHash(scaled)
	if err != nil {
		return "", fmt.Errorf("image hasher: failed to compute hash: %w", err)
	}

	return hash.ToString(), nil
}
