package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultCategories are the post categories the media library is split into.
var DefaultCategories = []string{
	"art", "tech", "lifestyle", "trading", "gaming",
	"music", "education", "comedy", "intimate",
}

type Config struct {
	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	MediaConfig
	SchemaConfig
}

type MediaConfig struct {
	Dir        string   `mapstructure:"MEDIA_DIR"`
	URLPrefix  string   `mapstructure:"MEDIA_URL_PREFIX" validate:"required,startswith=/"`
	Extension  string   `mapstructure:"MEDIA_EXTENSION" validate:"required"`
	Categories []string `mapstructure:"MEDIA_CATEGORIES"`

	DryRun              bool `mapstructure:"MEDIA_DRY_RUN"`
	RequireFullCoverage bool `mapstructure:"MEDIA_REQUIRE_FULL_COVERAGE"`
}

// SchemaConfig names the tables and columns assignments are written to.
type SchemaConfig struct {
	UsersTable       string `mapstructure:"USERS_TABLE" validate:"required"`
	UserAvatarColumn string `mapstructure:"USER_AVATAR_COLUMN" validate:"required"`
	UserBackground   string `mapstructure:"USER_BACKGROUND_COLUMN" validate:"required"`

	PostsTable          string `mapstructure:"POSTS_TABLE" validate:"required"`
	PostCategoryColumn  string `mapstructure:"POST_CATEGORY_COLUMN"`
	PostMediaColumn     string `mapstructure:"POST_MEDIA_COLUMN" validate:"required"`
	PostThumbnailColumn string `mapstructure:"POST_THUMBNAIL_COLUMN" validate:"required"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("MEDIA_URL_PREFIX", "/media")
	viper.SetDefault("MEDIA_EXTENSION", ".jpg")
	viper.SetDefault("MEDIA_CATEGORIES", DefaultCategories)
	viper.SetDefault("USERS_TABLE", "users")
	viper.SetDefault("USER_AVATAR_COLUMN", "avatar")
	viper.SetDefault("USER_BACKGROUND_COLUMN", "backgroundImage")
	viper.SetDefault("POSTS_TABLE", "posts")
	viper.SetDefault("POST_CATEGORY_COLUMN", "category")
	viper.SetDefault("POST_MEDIA_COLUMN", "mediaUrl")
	viper.SetDefault("POST_THUMBNAIL_COLUMN", "thumbnail")

	// Embedded structs are squashed so the flat env keys decode into them.
	cfg := Config{}
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) { dc.Squash = true }); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.MediaConfig.Categories = normalizeCategories(cfg.MediaConfig.Categories)

	slog.Info("Loaded configuration",
		"database_retries", cfg.DatabaseRetries,
		"media_dir", cfg.MediaConfig.Dir,
		"media_url_prefix", cfg.MediaConfig.URLPrefix,
		"categories", cfg.MediaConfig.Categories,
		"dry_run", cfg.MediaConfig.DryRun)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// RequireMediaDir reports an error when MEDIA_DIR is unset. The migrator has
// no use for it, so it is only enforced by the media commands.
func (c *Config) RequireMediaDir() error {
	if strings.TrimSpace(c.MediaConfig.Dir) == "" {
		return errors.New("MEDIA_DIR is required")
	}
	return nil
}

// normalizeCategories lower-cases, trims and de-duplicates labels, keeping
// first-seen order.
func normalizeCategories(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		for _, part := range strings.Split(c, ",") {
			label := strings.ToLower(strings.TrimSpace(part))
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}
