package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fpang/creatia/internal/auth"
	"github.com/fpang/creatia/internal/config"
	"github.com/fpang/creatia/internal/imagegen"
)

// InitGenerator resolves the provider's API key, builds the image generator
// and, when validate is set, checks the key with a cheap API call. Exits
// fatally on credential problems.
func InitGenerator(ctx context.Context, cfg *config.Config, keys *auth.Resolver, validate bool) imagegen.Generator {
	if keys == nil {
		keys = &auth.Resolver{}
	}
	gen, err := NewGenerator(ctx, cfg, keys)
	if err != nil {
		HandleValidationError(err)
	}
	log.Info().Str("provider", gen.Name()).Str("model", cfg.ImageModel()).Msg("Image generator initialized")

	if validate {
		if err := validateKey(ctx, cfg); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}
	return gen
}

// NewGenerator builds the configured provider's generator. Keys set in cfg
// take precedence over the resolver.
func NewGenerator(ctx context.Context, cfg *config.Config, keys *auth.Resolver) (imagegen.Generator, error) {
	switch cfg.Provider {
	case imagegen.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			key, err := keys.GetAPIKey(ctx, imagegen.ProviderOpenAI)
			if err != nil {
				return nil, err
			}
			cfg.OpenAI.APIKey = key
		}
		return imagegen.NewOpenAIGenerator(imagegen.OpenAIOptions{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.ImageModel,
			OutputCompression: cfg.OpenAI.OutputCompression,
		}), nil

	case imagegen.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			key, err := keys.GetAPIKey(ctx, imagegen.ProviderGemini)
			if err != nil {
				return nil, err
			}
			cfg.Gemini.APIKey = key
		}
		return imagegen.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.ImageModel)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func validateKey(ctx context.Context, cfg *config.Config) error {
	if cfg.Provider == imagegen.ProviderGemini {
		gen, err := imagegen.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.ImageModel)
		if err != nil {
			return err
		}
		return auth.ValidateGeminiKey(ctx, gen.Client(), cfg.Gemini.ImageModel)
	}

	oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		oc.BaseURL = cfg.OpenAI.BaseURL
	}
	return auth.ValidateOpenAIKey(ctx, openai.NewClientWithConfig(oc))
}
