package awsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/angelmondragon/shipping-service/pkg/config"
)

// LoadConfig resolves region and credentials. Static keys win when both are set; otherwise the
// default provider chain (env, shared config, instance role) is used.
func LoadConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if strings.TrimSpace(cfg.AccessKeyID) != "" && strings.TrimSpace(cfg.SecretAccessKey) != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return awsCfg, nil
}

// BaseEndpoint returns the endpoint override (LocalStack, ElasticMQ) or nil.
func BaseEndpoint(cfg config.AWSConfig) *string {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		return aws.String(endpoint)
	}
	return nil
}
