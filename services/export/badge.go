package export

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/fellowship/core/child"
)

const (
	PNGContentType = "image/png"
	badgeSize      = 256
)

// BadgeURL is the portal page a child badge points to.
func BadgeURL(frontendBaseURL string, c child.Child) string {
	return strings.TrimRight(frontendBaseURL, "/") + "/children/" + url.PathEscape(c.ID)
}

// Badge encodes the badge URL of c as a PNG QR code.
func Badge(frontendBaseURL string, c child.Child) ([]byte, error) {
	png, err := qrcode.Encode(BadgeURL(frontendBaseURL, c), qrcode.Medium, badgeSize)
	if err != nil {
		return nil, errors.Wrap(err, "encoding badge")
	}
	return png, nil
}
