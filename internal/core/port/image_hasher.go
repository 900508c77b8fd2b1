package port

import "context"

// ImageHasherPort строит перцептивный хэш по URL изображения.
type ImageHasherPort interface {
	HashImage(ctx context.Context, imageURL string) (string, error)
}
