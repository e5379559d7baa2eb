// Package auth resolves provider API keys and checks that they work.
package auth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

const credentialDir = ".creatia"

// envVars maps a provider to the environment variable holding its key.
var envVars = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// ParameterGetter is the subset of the SSM client used to read keys.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Resolver looks up API keys. The zero value checks the environment and the
// GPG credentials file; set SSM and Params to also read Parameter Store.
type Resolver struct {
	SSM ParameterGetter
	// Params maps a provider name to its SSM parameter name.
	Params map[string]string
}

// GetAPIKey retrieves the API key for provider from available sources.
// Priority order:
//  1. OPENAI_API_KEY / GEMINI_API_KEY environment variable
//  2. SSM parameter configured for the provider
//  3. GPG-encrypted file at ~/.creatia/{provider}.gpg
func (r *Resolver) GetAPIKey(ctx context.Context, provider string) (string, error) {
	envVar, ok := envVars[provider]
	if !ok {
		return "", &ValidationError{Type: ErrTypeNoKey, Message: fmt.Sprintf("unknown provider %q", provider)}
	}

	if key := os.Getenv(envVar); key != "" {
		log.Debug().Str("provider", provider).Msg("Using API key from environment variable")
		return key, nil
	}

	if name := r.Params[provider]; name != "" && r.SSM != nil {
		key, err := FromSSM(ctx, r.SSM, name)
		if err == nil {
			return key, nil
		}
		log.Warn().Err(err).Str("param", name).Msg("Failed to read API key from SSM")
	}

	key, err := getFromGPG(provider)
	if err == nil && key != "" {
		log.Debug().Str("provider", provider).Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Error().Err(err).Str("provider", provider).Msg("Failed to retrieve API key")
	return "", &ValidationError{
		Type:    ErrTypeNoKey,
		Message: fmt.Sprintf("API key not found. Set %s or store it in ~/%s/%s.gpg", envVar, credentialDir, provider),
		Err:     err,
	}
}

// FromSSM reads a SecureString parameter.
func FromSSM(ctx context.Context, client ParameterGetter, name string) (string, error) {
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("GetParameter %s: %w", name, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", fmt.Errorf("parameter %s is empty", name)
	}
	log.Debug().Str("param", name).Msg("API key loaded from SSM")
	return aws.ToString(result.Parameter.Value), nil
}

// getFromGPG decrypts the API key from the provider's GPG-encrypted credentials file.
func getFromGPG(provider string) (string, error) {
	credPath, err := getCredentialPath(provider)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}

	if passphrasePath, err := getPassphrasePath(); err == nil {
		if fi, statErr := os.Stat(passphrasePath); statErr == nil {
			// The passphrase file must be owner-only.
			if mode := fi.Mode().Perm(); mode&0o077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to the provider's credentials file.
func getCredentialPath(provider string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, provider+".gpg"), nil
}

// getPassphrasePath returns ~/.creatia/.gpg-passphrase.
func getPassphrasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, ".gpg-passphrase"), nil
}
