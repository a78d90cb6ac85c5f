package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cardcognition/internal/config"
)

var configEnvVars = []string{
	"CARDCOG_CONFIG",
	"CARDCOG_ADDR",
	"CARDCOG_MODEL_CACHE_SIZE",
	"CARDCOG_EMBEDDING_PROVIDER",
	"CARDCOG_EMBEDDING_DIMENSIONS",
	"CARDCOG_CORS_ALLOWED_ORIGINS",
	"CARDCOG_BREAKER_MIN_REQUESTS",
	"CARDCOG_STAT_SENTINEL",
	"CARDCOG_MODEL_STORE",
	"CARDCOG_EMBEDDING_RATE_LIMIT",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func TestConfigNew(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.EmbeddingProvider, convey.ShouldEqual, "ollama")
			convey.So(cfg.EmbeddingDimensions, convey.ShouldEqual, 768)
			convey.So(cfg.ModelStore, convey.ShouldEqual, "file")
			convey.So(cfg.StatSentinel, convey.ShouldEqual, -99)
			convey.So(cfg.MaxCommanderNameLen, convey.ShouldEqual, 31)
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldContain, "http://localhost:3000")
			convey.So(cfg.BreakerTimeout().Seconds(), convey.ShouldEqual, 30)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
				convey.So(cfg.ModelCacheSize, convey.ShouldEqual, 64)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CARDCOG_ADDR", ":8080")
			_ = os.Setenv("CARDCOG_MODEL_CACHE_SIZE", "0")
			_ = os.Setenv("CARDCOG_EMBEDDING_PROVIDER", "genai")
			_ = os.Setenv("CARDCOG_EMBEDDING_DIMENSIONS", "256")
			_ = os.Setenv("CARDCOG_BREAKER_MIN_REQUESTS", "3")
			_ = os.Setenv("CARDCOG_STAT_SENTINEL", "-1")
			_ = os.Setenv("CARDCOG_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ModelCacheSize, convey.ShouldEqual, 0)
				convey.So(cfg.EmbeddingProvider, convey.ShouldEqual, "genai")
				convey.So(cfg.EmbeddingDimensions, convey.ShouldEqual, 256)
				convey.So(cfg.BreakerMinRequests, convey.ShouldEqual, 3)
				convey.So(cfg.StatSentinel, convey.ShouldEqual, -1)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yamlContent := `
addr: ":9090"
model_store: redis
redis_addr: "cache:6379"
extraction_workers: 3
cors_allowed_origins:
  - "https://cardcognition.com"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("CARDCOG_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ModelStore, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.ExtractionWorkers, convey.ShouldEqual, 3)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://cardcognition.com"})
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("CARDCOG_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("CARDCOG_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When values are invalid", func() {
			_ = os.Setenv("CARDCOG_EMBEDDING_PROVIDER", "word2vec")
			_, err1 := config.Load(ctx)
			clearConfigEnvVars()

			_ = os.Setenv("CARDCOG_MODEL_STORE", "s3")
			_, err2 := config.Load(ctx)
			clearConfigEnvVars()

			_ = os.Setenv("CARDCOG_EMBEDDING_RATE_LIMIT", "-1")
			_, err3 := config.Load(ctx)

			convey.So(errors.Is(err1, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err2, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err3, config.ErrInvalidConfig), convey.ShouldBeTrue)

			convey.So(errors.Is(err1, config.ErrUnknownBackend), convey.ShouldBeTrue)
			convey.So(errors.Is(err2, config.ErrUnknownBackend), convey.ShouldBeTrue)
			convey.So(errors.Is(err3, config.ErrUnknownBackend), convey.ShouldBeFalse)
		})
	})
}
