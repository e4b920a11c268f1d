// Package qrcode renders chat invite links as QR code images.
package qrcode

import (
	"net/url"
	"strings"

	"meets/config"
	"meets/internal/domain/service"
	"meets/internal/errors"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size := defaultSize
	level := qrcode.Medium
	baseURL := ""

	if cfg.QRCode != nil {
		if cfg.QRCode.Size > 0 {
			size = cfg.QRCode.Size
		}
		baseURL = cfg.QRCode.BaseURL

		switch cfg.QRCode.ErrorCorrectionLevel {
		case "L":
			level = qrcode.Low
		case "M":
			level = qrcode.Medium
		case "Q":
			level = qrcode.High
		case "H":
			level = qrcode.Highest
		}
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
		baseURL:              baseURL,
	}
}

// GenerateChatInviteQR generates a PNG QR code encoding the join link for a
// chat room.
func (s *qrcodeService) GenerateChatInviteQR(chatName string) ([]byte, error) {
	if strings.TrimSpace(chatName) == "" {
		return nil, errors.New("chat name must not be empty")
	}

	link := strings.TrimRight(s.baseURL, "/") + "/chat/" + url.PathEscape(chatName)

	qrCode, err := qrcode.New(link, s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}
