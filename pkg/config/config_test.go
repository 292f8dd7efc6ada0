package config

import (
	"os"
	"testing"
	"time"

	"github.com/angelmondragon/shipping-service/pkg/enums"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Transport.Driver != TransportMemory {
		t.Fatalf("expected memory transport default, got %q", cfg.Transport.Driver)
	}
	if got := cfg.Consumer.PollInterval; got != 30*time.Second {
		t.Fatalf("expected poll interval 30s, got %v", got)
	}
	if got := cfg.Consumer.BatchSize; got != 10 {
		t.Fatalf("expected batch size 10, got %d", got)
	}
	if got := cfg.Consumer.WaitTime; got != 20*time.Second {
		t.Fatalf("expected wait time 20s, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without a URL")
	}
	if cfg.Shipments.Policy() != enums.TransitionPolicyForward {
		t.Fatalf("unexpected transition policy %q", cfg.Shipments.Policy())
	}
	if got := cfg.Transport.MemoryVisibilityTimeout; got != 30*time.Second {
		t.Fatalf("expected memory visibility timeout 30s, got %v", got)
	}
}

func TestLoad_NegativeMemoryVisibilityTimeout(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvMemoryVisibilityTimeout, "-1s")

	if _, err := Load(); err == nil {
		t.Fatal("expected negative visibility timeout to fail")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_AWSRequiresEndpoints(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvTransportDriver, "aws")

	if _, err := Load(); err == nil {
		t.Fatal("expected aws driver without queue/topic to fail")
	}

	t.Setenv(EnvSQSQueueURL, "https://sqs.us-east-1.amazonaws.com/123/shipments.fifo")
	t.Setenv(EnvSNSTopicARN, "arn:aws:sns:us-east-1:123:shipment-notifications.fifo")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.AWS.Region != "us-east-1" {
		t.Fatalf("unexpected region %q", cfg.AWS.Region)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvTransportDriver, "kafka")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown transport driver to fail")
	}
}

func TestLoad_RejectsOversizedBatch(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvConsumerBatchSize, "25")

	if _, err := Load(); err == nil {
		t.Fatal("expected batch size above 10 to fail")
	}
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvShipmentsTransitionPolicy, "anything-goes")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown transition policy to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8082")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvTransportDriver, "memory")
	t.Setenv(EnvConsumerBatchSize, "10")
	t.Setenv(EnvShipmentsTransitionPolicy, "forward")
}
