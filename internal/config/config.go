package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/walkin/intake/internal/estimation"
)

type Config struct {
	ServerAddress     string
	MongoURI          string
	MongoDB           string
	CatalogURL        string
	DonationURL       string
	DonationAPIKey    string
	DataDir           string
	RatesFile         string
	WalkInEmailDomain string
	SendGridAPIKey    string
	ReceiptFromEmail  string
	AllowedOrigins    []string
	SubmitTimeout     time.Duration
	SessionTTL        time.Duration
}

func Load() *Config {
	return &Config{
		ServerAddress:     getEnv("SERVER_ADDRESS", ":8080"),
		MongoURI:          getEnv("MONGO_URI", ""),
		MongoDB:           getEnv("MONGO_DB", "walkin"),
		CatalogURL:        getEnv("CATALOG_URL", ""),
		DonationURL:       getEnv("DONATION_URL", ""),
		DonationAPIKey:    getEnv("DONATION_API_KEY", ""),
		DataDir:           getEnv("DATA_DIR", "./data"),
		RatesFile:         getEnv("RATES_FILE", ""),
		WalkInEmailDomain: getEnv("WALKIN_EMAIL_DOMAIN", "walkin.local"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		ReceiptFromEmail:  getEnv("RECEIPT_FROM_EMAIL", ""),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
		SubmitTimeout:     getDuration("SUBMIT_TIMEOUT", 20*time.Second),
		SessionTTL:        getDuration("SESSION_TTL", 12*time.Hour),
	}
}

// ratesFile is the on-disk shape of RATES_FILE. Lists keep names' case and
// order, which viper would lose for map keys.
type ratesFile struct {
	Containers []estimation.ContainerType `mapstructure:"containers"`
	ItemRates  []estimation.ItemBaseRate  `mapstructure:"item_rates"`
}

// LoadCatalog builds the estimation catalog from path (YAML, TOML or JSON).
// An empty path, or a section missing from the file, uses the built-in table.
func LoadCatalog(path string) (*estimation.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return estimation.DefaultCatalog(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rates file %s: %w", path, err)
	}

	var rf ratesFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("parse rates file %s: %w", path, err)
	}

	containers := rf.Containers
	if len(containers) == 0 {
		containers = estimation.DefaultContainerTypes()
	}
	rates := rf.ItemRates
	if len(rates) == 0 {
		rates = estimation.DefaultItemRates()
	}
	return estimation.NewCatalog(containers, rates)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
