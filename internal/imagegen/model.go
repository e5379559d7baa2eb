package imagegen

import (
	openai "github.com/sashabaranov/go-openai"
)

// Image model IDs
//
// | Provider | API Model ID               | Notes                                  |
// |----------|----------------------------|----------------------------------------|
// | openai   | gpt-image-1                | Generate and multi-image edit          |
// | gemini   | gemini-2.5-flash-image     | Stable, image in/out                   |
// | gemini   | gemini-3-pro-image-preview | Advanced image generation/edit         |
const (
	// ModelGPTImage1 is the OpenAI image model used for generate and edit.
	ModelGPTImage1 = openai.CreateImageModelGptImage1

	// ModelGemini25FlashImage is the stable Gemini image model.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// Provider names accepted by the config file and the --provider flag.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultModel returns the image model used when the configuration names none.
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return ModelGemini25FlashImage
	}
	return ModelGPTImage1
}
