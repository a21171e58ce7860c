// Package model provides data-structs, enums and errors for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	Mode   string
	Layout string
	Status string
)

const (
	ModeOverlay Mode = "overlay" // ватермарк поверх основы
	ModeBehind  Mode = "behind"  // ватермарк под полупрозрачной основой
)

var ModesMap = map[Mode]bool{
	ModeOverlay: true,
	ModeBehind:  true,
}

// ParseMode - нормализует и валидирует режим наложения
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !ModesMap[m] {
		return "", fmt.Errorf("%w: %q", ErrIncorrectMode, s)
	}
	return m, nil
}

const (
	LayoutTiled  Layout = "tiled"
	LayoutPlaced Layout = "placed"
)

const (
	StatusCreated Status = "created"
	StatusFailed  Status = "failed"
	StatusDone    Status = "done"
)

//---------------------

// Job - запись журнала запросов на наложение ватермарка
type Job struct {
	UID           uuid.UUID   `json:"uid"`
	Mode          Mode        `json:"mode"`
	SourceName    string      `json:"source_name"`
	WatermarkName string      `json:"watermark_name"`
	SourceKey     string      `json:"-"`
	WatermarkKey  string      `json:"-"`
	ResultKey     string      `json:"-"`
	Status        Status      `json:"status,omitempty"`
	ErrMsg        StringSlice `json:"error,omitempty"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}

// JobEvent - сообщение о завершенной задаче для очереди
type JobEvent struct {
	UID       string    `json:"uid"`
	Mode      Mode      `json:"mode"`
	Status    Status    `json:"status"`
	ResultKey string    `json:"result_key,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

// WatermarkRequest - все что хендлер собрал из multipart-формы
type WatermarkRequest struct {
	Mode              string
	MainName          string
	MainImg           []byte
	WatermarkName     string
	WatermarkImg      []byte
	WidthScale        *float64
	WatermarkOpacity  *float64
	ForegroundOpacity *float64
	Tile              *bool
	Padding           *int
	X                 *int
	Y                 *int
}

// WatermarkResult - готовая картинка, отдаваемая клиенту
type WatermarkResult struct {
	JobID       uuid.UUID
	ResultKey   string
	ContentType string
	Data        []byte
}

// ------------------

var (
	ErrDecode       error = errors.New("failed to decode image")                   // 500
	ErrInvalidScale error = errors.New("computed image dimension is not positive") // 500
	ErrEncode       error = errors.New("failed to encode result image")            // 500

	ErrCommon500       error = errors.New("something went wrong. Try again later")   // 500
	ErrIncorrectMode   error = errors.New("watermark mode is not supported")         // 400
	ErrIncorrectParams error = errors.New("incorrect watermark parameters provided") // 400
	ErrEmptySource     error = errors.New("main_image is required")                  // 400
	ErrEmptyWMark      error = errors.New("watermark_image is required")             // 400
	ErrIncorrectID     error = errors.New("incorrect job UUID")                      // 400
	ErrIncorrectQuery  error = errors.New("incorrect query parameters")              // 400
	ErrJobNotFound     error = errors.New("specified job UUID doesn't exist")        // 404
	ErrResultNotReady  error = errors.New("requested job has no result")             // 404
)

//--------------------

const (
	PNG         = "image/png"
	ResultExt   = ".png"
	UploadsDir  = "uploads"
	ResultsDir  = "results"
	ResultToken = "_watermarked"
)

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
