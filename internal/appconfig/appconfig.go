// Package appconfig collects typed application settings from env/.env via wbf config
package appconfig

import (
	"log"
	"strings"

	"github.com/UnendingLoop/ImageWatermarker/internal/imageproc"
	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/spf13/cast"
)

// Source - то, что умеет отдавать строковые значения по ключу (wbf config.Config)
type Source interface {
	GetString(key string) string
}

const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	MaxUploadMB int64

	StorageBackend string
	StorageRoot    string
	BucketName     string
	MinioEndpoint  string
	MinioUser      string
	MinioPass      string

	PostgresDSN string
	KafkaBroker string
	KafkaTopic  string

	// оверрайды параметров наложения на уровне деплоя, nil - берем дефолт режима
	WidthScale        *float64
	WatermarkOpacity  *float64
	ForegroundOpacity *float64
	Tile              *bool
	Padding           *int
}

func Load(src Source) Config {
	cfg := Config{
		Port:           withDefault(src.GetString("APP_PORT"), "5000"),
		GinMode:        withDefault(src.GetString("GIN_MODE"), "release"),
		LogLevel:       withDefault(src.GetString("LOG_LEVEL"), "info"),
		MaxUploadMB:    cast.ToInt64(withDefault(src.GetString("MAX_UPLOAD_MB"), "32")),
		StorageBackend: strings.ToLower(withDefault(src.GetString("STORAGE_BACKEND"), BackendLocal)),
		StorageRoot:    withDefault(src.GetString("STORAGE_ROOT"), "./data"),
		BucketName:     src.GetString("BUCKET_NAME"),
		MinioEndpoint:  withDefault(src.GetString("MINIO_ENDPOINT"), "minio:9000"),
		MinioUser:      src.GetString("MINIO_USER"),
		MinioPass:      src.GetString("MINIO_PASS"),
		PostgresDSN:    src.GetString("POSTGRES_DSN"),
		KafkaBroker:    src.GetString("KAFKA_BROKER"),
		KafkaTopic:     withDefault(src.GetString("KAFKA_TOPIC"), "watermark-results"),
	}

	if cfg.MaxUploadMB <= 0 {
		log.Printf("MAX_UPLOAD_MB must be positive. Using default value %d...", 32)
		cfg.MaxUploadMB = 32
	}

	if v := src.GetString("WM_WIDTH_SCALE"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			log.Printf("Ignoring incorrect WM_WIDTH_SCALE %q: %v", v, err)
		} else {
			cfg.WidthScale = &f
		}
	}
	if v := src.GetString("WM_OPACITY"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			log.Printf("Ignoring incorrect WM_OPACITY %q: %v", v, err)
		} else {
			cfg.WatermarkOpacity = &f
		}
	}
	if v := src.GetString("WM_FG_OPACITY"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			log.Printf("Ignoring incorrect WM_FG_OPACITY %q: %v", v, err)
		} else {
			cfg.ForegroundOpacity = &f
		}
	}
	if v := src.GetString("WM_TILE"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			log.Printf("Ignoring incorrect WM_TILE %q: %v", v, err)
		} else {
			cfg.Tile = &b
		}
	}
	if v := src.GetString("WM_PADDING"); v != "" {
		p, err := cast.ToIntE(v)
		if err != nil {
			log.Printf("Ignoring incorrect WM_PADDING %q: %v", v, err)
		} else {
			cfg.Padding = &p
		}
	}

	return cfg
}

// Params - дефолты режима с учетом оверрайдов из окружения
func (c Config) Params(mode model.Mode) imageproc.Params {
	p := imageproc.DefaultParams(mode)
	if c.WidthScale != nil {
		p.WidthScale = *c.WidthScale
	}
	if c.WatermarkOpacity != nil {
		p.WatermarkOpacity = *c.WatermarkOpacity
	}
	if c.ForegroundOpacity != nil && mode == model.ModeBehind {
		p.ForegroundOpacity = *c.ForegroundOpacity
	}
	if c.Tile != nil {
		p.Tile = *c.Tile
	}
	if c.Padding != nil {
		p.Padding = *c.Padding
	}
	return p
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
