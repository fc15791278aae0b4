package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	// SNSTopicARN is the topic new notifications are published to for push
	// delivery. Empty disables publication.
	SNSTopicARN string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	// MapBox settings used to compose community map tile URLs.
	MapBoxMapID       string
	MapBoxAccessToken string

	// Analytics settings for the external pageview-counting service.
	AnalyticsBaseURL   string
	AnalyticsProfileID string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users            string
	Giveaways        string
	GiveawayComments string
	Notifications    string
	Communities      string
	ParentCategories string
	Categories       string
	StatusTypes      string
	Pictures         string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:            getEnv("DYNAMO_TABLE_USERS", "users"),
			Giveaways:        getEnv("DYNAMO_TABLE_GIVEAWAYS", "giveaways"),
			GiveawayComments: getEnv("DYNAMO_TABLE_GIVEAWAY_COMMENTS", "giveaway_comments"),
			Notifications:    getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Communities:      getEnv("DYNAMO_TABLE_COMMUNITIES", "communities"),
			ParentCategories: getEnv("DYNAMO_TABLE_PARENT_CATEGORIES", "parent_categories"),
			Categories:       getEnv("DYNAMO_TABLE_CATEGORIES", "categories"),
			StatusTypes:      getEnv("DYNAMO_TABLE_STATUS_TYPES", "status_types"),
			Pictures:         getEnv("DYNAMO_TABLE_PICTURES", "pictures"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "giveaway-pictures"),
		SNSTopicARN:  getEnv("SNS_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		MapBoxMapID:       getEnv("MAPBOX_MAP_ID", ""),
		MapBoxAccessToken: getEnv("MAPBOX_ACCESS_TOKEN", ""),

		AnalyticsBaseURL:   getEnv("ANALYTICS_BASE_URL", ""),
		AnalyticsProfileID: getEnv("ANALYTICS_PROFILE_ID", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
