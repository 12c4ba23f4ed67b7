package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	AvatarMaxSide     = 512
	AvatarJPEGQuality = 85
	AvatarContentType = "image/jpeg"
)

var ErrUnsupportedImage = errors.New("file is not a supported image (jpeg, png or gif)")

type AvatarService interface {
	// Normalize decodes an uploaded image, scales it down to fit the avatar
	// box and re-encodes it as JPEG.
	Normalize(r io.Reader) ([]byte, error)
}

type avatarService struct {
	log     *logrus.Logger
	maxSide int
	quality int
}

func NewAvatarService(log *logrus.Logger) AvatarService {
	return &avatarService{
		log:     log,
		maxSide: AvatarMaxSide,
		quality: AvatarJPEGQuality,
	}
}

func (s *avatarService) Normalize(r io.Reader) ([]byte, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	width, height := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), s.maxSide)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.quality}); err != nil {
		s.log.Warnf("Failed to encode avatar: %+v", err)
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"format": format,
		"width":  width,
		"height": height,
		"bytes":  buf.Len(),
	}).Debug("Avatar normalized")

	return buf.Bytes(), nil
}

// fitWithin scales (w, h) down so that neither side exceeds limit, keeping the
// aspect ratio. Images already inside the box are left as they are.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
