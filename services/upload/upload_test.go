package uploadsvc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/darasa/darasa/core"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		dir:          t.TempDir(),
		baseURL:      "/media",
		maxImageSide: 64,
		jpegQuality:  70,
		logger:       core.NewStdLogger(log.New(io.Discard, "", 0)),
	}
}

func pngImage(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestSaveImageResizesDown(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.SaveImage("sch1", pngImage(t, 200, 100))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "/media/sch1/") || !strings.HasSuffix(url, ".jpg") {
		t.Errorf("url = %q, want /media/sch1/<uuid>.jpg", url)
	}

	name := filepath.Base(url)
	f, err := os.Open(filepath.Join(svc.dir, "sch1", name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Errorf("stored format = %q, want jpeg", format)
	}
	if cfg.Width > svc.maxImageSide || cfg.Height > svc.maxImageSide {
		t.Errorf("stored size = %dx%d, want bounded by %d", cfg.Width, cfg.Height, svc.maxImageSide)
	}
}

func TestSaveImageKeepsSmallImages(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.SaveImage("sch1", pngImage(t, 32, 16))
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(svc.dir, "sch1", filepath.Base(url)))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 32 || cfg.Height != 16 {
		t.Errorf("stored size = %dx%d, want 32x16 untouched", cfg.Width, cfg.Height)
	}
}

func TestSaveImageRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.SaveImage("sch1", strings.NewReader("not an image")); err != ErrUnsupportedImage {
		t.Errorf("err = %v, want ErrUnsupportedImage", err)
	}
}

func TestStudentBadge(t *testing.T) {
	data, err := StudentBadge("stu001")
	if err != nil {
		t.Fatal(err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("badge format = %q, want png", format)
	}
	if img.Bounds().Dx() != badgeSide {
		t.Errorf("badge side = %d, want %d", img.Bounds().Dx(), badgeSide)
	}
}
