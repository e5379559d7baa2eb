package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/auth"
)

// ResolveDirectory returns the absolute form of dirPath after checking that
// it is a directory. With create set, a missing directory is created.
func ResolveDirectory(dirPath string, create bool) (string, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", dirPath, err)
	}

	info, err := os.Stat(absPath)
	switch {
	case os.IsNotExist(err) && create:
		if err := os.MkdirAll(absPath, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", absPath, err)
		}
		log.Debug().Str("path", absPath).Msg("Created output directory")
		return absPath, nil
	case os.IsNotExist(err):
		return "", fmt.Errorf("directory not found: %s", absPath)
	case err != nil:
		return "", fmt.Errorf("failed to access %s: %w", absPath, err)
	case !info.IsDir():
		return "", fmt.Errorf("not a directory: %s", absPath)
	}
	return absPath, nil
}

var validationHints = map[auth.ValidationErrorType]string{
	auth.ErrTypeNoKey:         "No API key configured. Set OPENAI_API_KEY / GEMINI_API_KEY, an SSM parameter, or ~/.creatia/<provider>.gpg",
	auth.ErrTypeInvalidKey:    "The API key was rejected by the provider",
	auth.ErrTypeNetworkError:  "Could not reach the provider API",
	auth.ErrTypeQuotaExceeded: "Provider quota exceeded, try again later",
}

// ValidationHint returns the user-facing message for a credential error.
func ValidationHint(err error) string {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		if hint, ok := validationHints[verr.Type]; ok {
			return hint
		}
		return "API key validation failed"
	}
	return "Failed to initialize the image generator"
}

// HandleValidationError logs the hint for err and exits.
func HandleValidationError(err error) {
	log.Fatal().Err(err).Msg(ValidationHint(err))
}
