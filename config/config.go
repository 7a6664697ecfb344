package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"

	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"

	StrategyModelDriven    = "model_driven"
	StrategyPipelineDriven = "pipeline_driven"

	EnricherPlaces = "places"
	EnricherImage  = "image"
)

type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type FirebaseConfig struct {
	ProjectID       string `mapstructure:"projectID"`
	CredentialsFile string `mapstructure:"credentialsFile"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
}

type MinioConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"accessKey"`
	SecretKey     string `mapstructure:"secretKey"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"useSSL"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
}

type GenAIConfig struct {
	APIKey         string        `mapstructure:"apiKey"`
	Model          string        `mapstructure:"model"`
	ImageModel     string        `mapstructure:"imageModel"`
	Temperature    float32       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxImageSize   int           `mapstructure:"maxImageSize"`
	AssistantModel string        `mapstructure:"assistantModel"`
}

type PlacesConfig struct {
	APIKey              string        `mapstructure:"apiKey"`
	BaseURL             string        `mapstructure:"baseURL"`
	PhotoMaxWidth       int           `mapstructure:"photoMaxWidth"`
	PlaceholderImageURL string        `mapstructure:"placeholderImageURL"`
	DefaultLatitude     float64       `mapstructure:"defaultLatitude"`
	DefaultLongitude    float64       `mapstructure:"defaultLongitude"`
	RetryPrefix         string        `mapstructure:"retryPrefix"`
	Timeout             time.Duration `mapstructure:"timeout"`
	CacheTTL            time.Duration `mapstructure:"cacheTTL"`
}

type RecommendationConfig struct {
	Strategy          string        `mapstructure:"strategy"`
	Enricher          string        `mapstructure:"enricher"`
	EnrichmentTimeout time.Duration `mapstructure:"enrichmentTimeout"`
	MaxConcurrency    int           `mapstructure:"maxConcurrency"`
	MaxToolRounds     int           `mapstructure:"maxToolRounds"`
	SavedImagePatch   string        `mapstructure:"savedImagePatch"`
	BackgroundTimeout time.Duration `mapstructure:"backgroundTimeout"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Backend  string         `mapstructure:"backend"`
		Postgres PostgresConfig `mapstructure:"postgres"`
		Minio    MinioConfig    `mapstructure:"minio"`
	} `mapstructure:"repositories"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Auth     struct {
		Provider    string    `mapstructure:"provider"`
		JWT         JWTConfig `mapstructure:"jwt"`
		AdminEmails []string  `mapstructure:"adminEmails"`
	} `mapstructure:"auth"`
	GenAI          GenAIConfig          `mapstructure:"genai"`
	Places         PlacesConfig         `mapstructure:"places"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Server         struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
		RateLimit      int           `mapstructure:"rateLimit"`
	} `mapstructure:"server"`
}

// secrets never live in config.yml
var envBindings = map[string]string{
	"genai.apiKey":                     "GOOGLE_GEMINI_API_KEY",
	"places.apiKey":                    "GOOGLE_MAPS_API_KEY",
	"auth.jwt.secretKey":               "JWT_SECRET_KEY",
	"firebase.projectID":               "FIREBASE_PROJECT_ID",
	"firebase.credentialsFile":         "FIREBASE_CREDENTIALS_FILE",
	"repositories.backend":             "DOCUMENT_STORE_BACKEND",
	"repositories.postgres.host":       "POSTGRES_HOST",
	"repositories.postgres.port":       "POSTGRES_PORT",
	"repositories.postgres.username":   "POSTGRES_USER",
	"repositories.postgres.password":   "POSTGRES_PASSWORD",
	"repositories.postgres.db":         "POSTGRES_DB",
	"repositories.minio.endpoint":      "MINIO_ENDPOINT",
	"repositories.minio.accessKey":     "MINIO_ACCESS_KEY",
	"repositories.minio.secretKey":     "MINIO_SECRET_KEY",
	"repositories.minio.publicBaseURL": "MINIO_PUBLIC_BASE_URL",
	"recommendation.strategy":          "RECOMMENDATION_STRATEGY",
	"recommendation.enricher":          "RECOMMENDATION_ENRICHER",
	"auth.provider":                    "AUTH_PROVIDER",
	"server.HTTPPort":                  "PORT",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate rejects settings the container cannot wire.
func (c *Config) Validate() error {
	switch c.Repositories.Backend {
	case BackendFirestore, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown repositories.backend %q", c.Repositories.Backend)
	}
	switch c.Auth.Provider {
	case AuthProviderFirebase, AuthProviderJWT:
	default:
		return fmt.Errorf("unknown auth.provider %q", c.Auth.Provider)
	}
	switch c.Recommendation.Strategy {
	case StrategyModelDriven, StrategyPipelineDriven:
	default:
		return fmt.Errorf("unknown recommendation.strategy %q", c.Recommendation.Strategy)
	}
	switch c.Recommendation.Enricher {
	case EnricherPlaces, EnricherImage:
	default:
		return fmt.Errorf("unknown recommendation.enricher %q", c.Recommendation.Enricher)
	}
	switch c.Recommendation.SavedImagePatch {
	case EnricherPlaces, EnricherImage:
	default:
		return fmt.Errorf("unknown recommendation.savedImagePatch %q", c.Recommendation.SavedImagePatch)
	}
	return nil
}

// IsAdmin reports whether email belongs to the configured admin list.
func (c *Config) IsAdmin(email string) bool {
	for _, admin := range c.Auth.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), strings.TrimSpace(email)) && email != "" {
			return true
		}
	}
	return false
}
