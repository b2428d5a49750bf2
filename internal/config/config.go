package config

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/i474232898/forecast-collector/internal/log"
)

// Storage backends understood by store.NewDatasetStore.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// RegionPlaceholder is substituted with the region code in URLTemplate.
const RegionPlaceholder = "{region}"

type AppConfig struct {
	// URLTemplate is the forecast endpoint; RegionPlaceholder is replaced by the region code.
	URLTemplate string   `env:"FORECAST_URL_TEMPLATE,default=https://api.bmkg.go.id/publik/prakiraan-cuaca?adm4={region}" validate:"required,contains={region}"`
	Regions     []string `env:"REGION_CODES,default=36.71.07.1003" validate:"required,min=1,dive,required,region"`

	DataDir string `env:"DATA_DIR,default=data-raw" validate:"required"`
	MaxRows int    `env:"MAX_ROWS,default=1000" validate:"gt=0"`

	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=30s" validate:"gt=0"`
	HTTPMaxRetries int           `env:"HTTP_MAX_RETRIES,default=0" validate:"gte=0,lte=10"`

	StorageBackend string `env:"STORAGE_BACKEND,default=local" validate:"oneof=local gcs memory"`
	GCSBucket      string `env:"GCS_BUCKET" validate:"required_if=StorageBackend gcs"`

	// FeatureArtifactPath enables the feature stage when set.
	FeatureArtifactPath string `env:"FEATURE_ARTIFACT_PATH"`
	ParquetExport       bool   `env:"PARQUET_EXPORT,default=false"`

	// FetchInterval controls how often the daemon collects each region.
	FetchInterval time.Duration `env:"FETCH_INTERVAL,default=1h" validate:"gt=0"`
	Port          string        `env:"PORT,default=8080"`

	Debug bool `env:"LOG_DEBUG,default=false"`
}

// RegionPattern matches administrative region codes such as "36.71.07.1003".
// Codes become part of file and object names, so nothing else is accepted.
var RegionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return RegionPattern.MatchString(fl.Field().String())
	})
}

// Load reads configuration from environment (and an optional .env file) with sensible defaults.
func Load(ctx context.Context) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom binds configuration from the given lookuper. Tests use envconfig.MapLookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	for i, r := range cfg.Regions {
		cfg.Regions[i] = strings.TrimSpace(r)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RegionURL builds the request URL for one region.
func (c *AppConfig) RegionURL(region string) string {
	return strings.ReplaceAll(c.URLTemplate, RegionPlaceholder, region)
}

// DatasetPath is the region-scoped location of the persisted dataset.
func (c *AppConfig) DatasetPath(region string) string {
	return filepath.Join(c.DataDir, "forecast_"+region+".csv")
}

// FeaturesPath is where the transformed feature matrix for a region is written.
func (c *AppConfig) FeaturesPath(region string) string {
	return filepath.Join(c.DataDir, "features_"+region+".csv")
}

// ParquetPath is where the optional parquet snapshot for a region is written.
func (c *AppConfig) ParquetPath(region string) string {
	return filepath.Join(c.DataDir, "forecast_"+region+".parquet")
}
