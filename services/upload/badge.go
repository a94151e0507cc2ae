package uploadsvc

import (
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

const badgeSide = 512 // px

// StudentBadge renders the QR code the gate scanner reads: a PNG encoding the
// student's printed code.
func StudentBadge(studentCode string) ([]byte, error) {
	png, err := qrcode.Encode(studentCode, qrcode.Medium, badgeSide)
	if err != nil {
		return nil, errors.Wrap(err, "encoding badge qr")
	}
	return png, nil
}
