// Package uploadsvc stores uploaded student photos on local disk. Images are
// resized down and re-encoded as JPEG before storage; the client never needs
// to compress.
package uploadsvc

import (
	"image"
	"image/jpeg"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "image/gif"
	_ "image/png"

	"github.com/darasa/darasa/core"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type Service struct {
	dir          string
	baseURL      string
	maxImageSide int
	jpegQuality  int
	logger       core.Logger
}

func NewService(logger core.Logger) *Service {
	conf := core.Conf.Upload
	return &Service{
		dir:          conf.Dir,
		baseURL:      strings.TrimRight(conf.BaseURL, "/"),
		maxImageSide: conf.MaxImageSide,
		jpegQuality:  conf.JPEGQuality,
		logger:       logger,
	}
}

// Dir is the on-disk root; the API serves it as static files under BaseURL.
func (svc *Service) Dir() string { return svc.dir }

// SaveImage decodes, shrinks and stores an uploaded image under the school's
// directory, returning the public URL.
func (svc *Service) SaveImage(schoolID string, r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", ErrUnsupportedImage
	}

	// only shrink, never blow up small images
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > svc.maxImageSide || h > svc.maxImageSide {
		img = imaging.Fit(img, svc.maxImageSide, svc.maxImageSide, imaging.Lanczos)
	}

	name := uuid.New().String() + ".jpg"
	dir := filepath.Join(svc.dir, schoolID)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer f.Close()

	if err = jpeg.Encode(f, img, &jpeg.Options{Quality: svc.jpegQuality}); err != nil {
		return "", errors.Wrap(err, "encoding jpeg")
	}
	return svc.url(schoolID, name), nil
}

func (svc *Service) url(schoolID, name string) string {
	return svc.baseURL + "/" + path.Join(schoolID, name)
}
