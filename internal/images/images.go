// Package images normalizes uploaded avatars to a uniform size and format.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // jpeg decoder
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // webp decoder
)

// AvatarSize is the edge length, in pixels, every stored avatar is scaled to.
const AvatarSize = 250

// NormalizeAvatar decodes an uploaded image, scales it to
// AvatarSize x AvatarSize and re-encodes it as PNG.
func NormalizeAvatar(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding avatar: %w", err)
	}
	return buf.Bytes(), nil
}
