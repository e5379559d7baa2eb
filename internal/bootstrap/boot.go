// Package bootstrap wires configuration into the shared backends used by the
// server and the CLI: AWS clients, the report store, the S3 mirror and the
// API key resolver. Each binary's main is a short composition of these
// helpers.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/auth"
	"github.com/fpang/creatia/internal/config"
	"github.com/fpang/creatia/internal/imagegen"
	"github.com/fpang/creatia/internal/logging"
	"github.com/fpang/creatia/internal/s3util"
	"github.com/fpang/creatia/internal/store"
)

// AWSClients holds the AWS SDK clients used by the backends.
type AWSClients struct {
	Config   aws.Config
	SSM      *ssm.Client
	S3       *s3.Client
	DynamoDB *dynamodb.Client
}

// NeedsAWS reports whether any configured backend talks to AWS.
func NeedsAWS(cfg *config.Config) bool {
	return cfg.Store.Backend == config.StoreDynamo ||
		cfg.Mirror.Bucket != "" ||
		cfg.Credentials.OpenAIKeyParam != "" ||
		cfg.Credentials.GeminiKeyParam != ""
}

// InitAWS loads the default AWS config and creates the clients.
func InitAWS(ctx context.Context) (*AWSClients, error) {
	start := time.Now()
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Dur("elapsed", time.Since(start)).Msg("AWS config loaded")
	return &AWSClients{
		Config:   cfg,
		SSM:      ssm.NewFromConfig(cfg),
		S3:       s3.NewFromConfig(cfg),
		DynamoDB: dynamodb.NewFromConfig(cfg),
	}, nil
}

// KeyResolver returns an API key resolver that also reads the configured SSM
// parameters when AWS clients are available.
func KeyResolver(cfg *config.Config, clients *AWSClients) *auth.Resolver {
	r := &auth.Resolver{Params: map[string]string{}}
	if cfg.Credentials.OpenAIKeyParam != "" {
		r.Params[imagegen.ProviderOpenAI] = cfg.Credentials.OpenAIKeyParam
	}
	if cfg.Credentials.GeminiKeyParam != "" {
		r.Params[imagegen.ProviderGemini] = cfg.Credentials.GeminiKeyParam
	}
	if clients != nil {
		r.SSM = clients.SSM
	}
	return r
}

// InitStore creates the configured report store. The redis backend is pinged
// so that a wrong address fails at startup.
func InitStore(ctx context.Context, cfg *config.Config, clients *AWSClients) (store.ReportStore, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		return store.NewMemoryStore(cfg.Store.TTL), nil

	case config.StoreRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.Store.RedisAddr},
			DB:    cfg.Store.RedisDB,
		})
		rs := store.NewRedisStore(client, cfg.Store.TTL)
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		return rs, nil

	case config.StoreDynamo:
		if clients == nil {
			return nil, fmt.Errorf("dynamodb store requires AWS clients")
		}
		return store.NewDynamoStore(clients.DynamoDB, cfg.Store.DynamoTable, cfg.Store.TTL), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// InitMirror returns the S3 mirror, or nil when no bucket is configured.
func InitMirror(cfg *config.Config, clients *AWSClients) *s3util.Mirror {
	if cfg.Mirror.Bucket == "" || clients == nil {
		return nil
	}
	return s3util.NewMirror(clients.S3, cfg.Mirror.Bucket, cfg.Mirror.Prefix)
}

// Describe records the resolved backends on the startup logger.
func Describe(sl *logging.StartupLogger, cfg *config.Config) *logging.StartupLogger {
	sl.Model("image", cfg.ImageModel()).
		Model("chat", cfg.ChatModel()).
		Config("provider", cfg.Provider).
		Config("resourcesRoot", cfg.Resources.Root).
		Config("poolSize", fmt.Sprint(cfg.Batch.PoolSize))

	switch cfg.Store.Backend {
	case config.StoreRedis:
		sl.Backend("store", "redis://"+cfg.Store.RedisAddr)
	case config.StoreDynamo:
		sl.Backend("store", "dynamodb:"+cfg.Store.DynamoTable)
	default:
		sl.Backend("store", "memory")
	}
	if cfg.Mirror.Bucket != "" {
		sl.Backend("mirror", "s3://"+cfg.Mirror.Bucket+"/"+cfg.Mirror.Prefix)
	}
	if cfg.Credentials.OpenAIKeyParam != "" {
		sl.SSMParam("openaiKey", cfg.Credentials.OpenAIKeyParam)
	}
	if cfg.Credentials.GeminiKeyParam != "" {
		sl.SSMParam("geminiKey", cfg.Credentials.GeminiKeyParam)
	}
	sl.Feature("mirror", cfg.Mirror.Bucket != "")
	sl.Feature("metrics", cfg.Metrics.Enabled)
	return sl
}
