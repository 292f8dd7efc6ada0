package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/shipping-service/pkg/enums"
)

// Transport drivers understood by the bootstrap code.
const (
	TransportMemory = "memory"
	TransportAWS    = "aws"
	TransportGCP    = "gcp"
)

type Config struct {
	App       AppConfig
	Transport TransportConfig
	AWS       AWSConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Consumer  ConsumerConfig
	Redis     RedisConfig
	Eventing  EventingConfig
	JWT       JWTConfig
	Shipments ShipmentsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPPING_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPPING_APP_PORT" default:"8082"`
	LogLevel     string `envconfig:"SHIPPING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPPING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// TransportConfig selects the queue/topic backend. The FIFO overrides force ordering
// metadata on even when the endpoint name does not end in ".fifo".
type TransportConfig struct {
	Driver    string `envconfig:"SHIPPING_TRANSPORT_DRIVER" default:"memory"`
	QueueFIFO bool   `envconfig:"SHIPPING_QUEUE_FIFO" default:"false"`
	TopicFIFO bool   `envconfig:"SHIPPING_TOPIC_FIFO" default:"false"`
	// MemoryVisibilityTimeout only applies to the memory driver; zero disables redelivery.
	MemoryVisibilityTimeout time.Duration `envconfig:"SHIPPING_MEMORY_VISIBILITY_TIMEOUT" default:"30s"`
}

type AWSConfig struct {
	Region          string `envconfig:"SHIPPING_AWS_REGION" default:"us-east-1"`
	AccessKeyID     string `envconfig:"SHIPPING_AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SHIPPING_AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `envconfig:"SHIPPING_AWS_ENDPOINT"`
	QueueURL        string `envconfig:"SHIPPING_SQS_QUEUE_URL"`
	TopicARN        string `envconfig:"SHIPPING_SNS_TOPIC_ARN"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHIPPING_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHIPPING_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHIPPING_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"SHIPPING_PUBSUB_EVENTS_TOPIC" default:"shipment-events"`
	EventsSubscription string `envconfig:"SHIPPING_PUBSUB_EVENTS_SUBSCRIPTION" default:"shipment-events-worker"`
	NotificationTopic  string `envconfig:"SHIPPING_PUBSUB_NOTIFICATION_TOPIC" default:"shipment-notifications"`
	EnableOrdering     bool   `envconfig:"SHIPPING_PUBSUB_ENABLE_ORDERING" default:"true"`
}

type ConsumerConfig struct {
	Enabled        bool          `envconfig:"SHIPPING_CONSUMER_ENABLED" default:"true"`
	PollInterval   time.Duration `envconfig:"SHIPPING_CONSUMER_POLL_INTERVAL" default:"30s"`
	BatchSize      int           `envconfig:"SHIPPING_CONSUMER_BATCH_SIZE" default:"10"`
	WaitTime       time.Duration `envconfig:"SHIPPING_CONSUMER_WAIT_TIME" default:"20s"`
	Concurrency    int           `envconfig:"SHIPPING_CONSUMER_CONCURRENCY" default:"4"`
	HandlerTimeout time.Duration `envconfig:"SHIPPING_CONSUMER_HANDLER_TIMEOUT" default:"15s"`
}

// RedisConfig is optional. An empty URL disables the consumer idempotency guard.
type RedisConfig struct {
	URL          string        `envconfig:"SHIPPING_REDIS_URL"`
	Namespace    string        `envconfig:"SHIPPING_REDIS_NAMESPACE" default:"ship"`
	PoolSize     int           `envconfig:"SHIPPING_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"SHIPPING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPPING_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SHIPPING_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type EventingConfig struct {
	IdempotencyTTL    time.Duration `envconfig:"SHIPPING_EVENTING_IDEMPOTENCY_TTL" default:"24h"`
	GroupFallback     string        `envconfig:"SHIPPING_EVENTING_GROUP_FALLBACK" default:"default"`
	NotificationGroup string        `envconfig:"SHIPPING_EVENTING_NOTIFICATION_GROUP" default:"shipment-notifications"`
}

type JWTConfig struct {
	Secret string `envconfig:"SHIPPING_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SHIPPING_JWT_ISSUER"`
}

type ShipmentsConfig struct {
	TransitionPolicy string `envconfig:"SHIPPING_SHIPMENTS_TRANSITION_POLICY" default:"forward"`
}

// Policy returns the parsed transition policy. validate() guarantees it parses.
func (s ShipmentsConfig) Policy() enums.TransitionPolicy {
	policy, err := enums.ParseTransitionPolicy(s.TransitionPolicy)
	if err != nil {
		return enums.TransitionPolicyForward
	}
	return policy
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Transport.Driver)) {
	case TransportMemory:
	case TransportAWS:
		missing := []string{}
		if strings.TrimSpace(c.AWS.QueueURL) == "" {
			missing = append(missing, EnvSQSQueueURL)
		}
		if strings.TrimSpace(c.AWS.TopicARN) == "" {
			missing = append(missing, EnvSNSTopicARN)
		}
		if len(missing) > 0 {
			return fmt.Errorf("aws transport requires %s", strings.Join(missing, ", "))
		}
	case TransportGCP:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("gcp transport requires %s", EnvGCPProjectID)
		}
	default:
		return fmt.Errorf("%s must be one of memory, aws, gcp; got %q", EnvTransportDriver, c.Transport.Driver)
	}
	c.Transport.Driver = strings.ToLower(strings.TrimSpace(c.Transport.Driver))

	if c.Transport.MemoryVisibilityTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvMemoryVisibilityTimeout)
	}
	if c.Consumer.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvConsumerPollInterval)
	}
	if c.Consumer.BatchSize <= 0 || c.Consumer.BatchSize > 10 {
		return fmt.Errorf("%s must be between 1 and 10", EnvConsumerBatchSize)
	}
	if c.Consumer.WaitTime < 0 || c.Consumer.WaitTime > 20*time.Second {
		return fmt.Errorf("%s must be between 0s and 20s", EnvConsumerWaitTime)
	}
	if _, err := enums.ParseTransitionPolicy(c.Shipments.TransitionPolicy); err != nil {
		return fmt.Errorf("%s: %w", EnvShipmentsTransitionPolicy, err)
	}
	return nil
}
