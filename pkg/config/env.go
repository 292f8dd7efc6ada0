package config

// EnvPrefix is handed to envconfig; every field tag below carries its full variable name.
const EnvPrefix = "SHIPPING"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SHIPPING_APP_ENV"
	EnvPort         = "SHIPPING_APP_PORT"
	EnvLogLevel     = "SHIPPING_LOG_LEVEL"
	EnvLogWarnStack = "SHIPPING_LOG_WARN_STACK"

	EnvTransportDriver = "SHIPPING_TRANSPORT_DRIVER"
	EnvQueueFIFO       = "SHIPPING_QUEUE_FIFO"
	EnvTopicFIFO       = "SHIPPING_TOPIC_FIFO"

	EnvMemoryVisibilityTimeout = "SHIPPING_MEMORY_VISIBILITY_TIMEOUT"

	EnvAWSRegion          = "SHIPPING_AWS_REGION"
	EnvAWSAccessKeyID     = "SHIPPING_AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "SHIPPING_AWS_SECRET_ACCESS_KEY"
	EnvAWSEndpoint        = "SHIPPING_AWS_ENDPOINT"
	EnvSQSQueueURL        = "SHIPPING_SQS_QUEUE_URL"
	EnvSNSTopicARN        = "SHIPPING_SNS_TOPIC_ARN"

	EnvGCPProjectID              = "SHIPPING_GCP_PROJECT_ID"
	EnvPubSubEventsTopic         = "SHIPPING_PUBSUB_EVENTS_TOPIC"
	EnvPubSubEventsSubscription  = "SHIPPING_PUBSUB_EVENTS_SUBSCRIPTION"
	EnvPubSubNotificationTopic   = "SHIPPING_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubEnableOrdering      = "SHIPPING_PUBSUB_ENABLE_ORDERING"
	EnvConsumerEnabled           = "SHIPPING_CONSUMER_ENABLED"
	EnvConsumerPollInterval      = "SHIPPING_CONSUMER_POLL_INTERVAL"
	EnvConsumerBatchSize         = "SHIPPING_CONSUMER_BATCH_SIZE"
	EnvConsumerWaitTime          = "SHIPPING_CONSUMER_WAIT_TIME"
	EnvConsumerConcurrency       = "SHIPPING_CONSUMER_CONCURRENCY"
	EnvConsumerHandlerTimeout    = "SHIPPING_CONSUMER_HANDLER_TIMEOUT"
	EnvRedisURL                  = "SHIPPING_REDIS_URL"
	EnvEventingIdempotencyTTL    = "SHIPPING_EVENTING_IDEMPOTENCY_TTL"
	EnvEventingGroupFallback     = "SHIPPING_EVENTING_GROUP_FALLBACK"
	EnvEventingNotificationGroup = "SHIPPING_EVENTING_NOTIFICATION_GROUP"
	EnvJWTSecret                 = "SHIPPING_JWT_SECRET"
	EnvJWTIssuer                 = "SHIPPING_JWT_ISSUER"
	EnvShipmentsTransitionPolicy = "SHIPPING_SHIPMENTS_TRANSITION_POLICY"
)
