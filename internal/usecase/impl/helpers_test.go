package impl

import (
	"io"
	"log/slog"
	"time"

	"meets/config"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:    12,
			ResetTokenTTL: time.Hour,
		},
		Frontend: &config.FrontendConfig{
			BaseURL: "https://meets.example.com",
		},
	}
}
