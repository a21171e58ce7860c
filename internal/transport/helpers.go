package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrJobNotFound),
		errors.Is(err, model.ErrResultNotReady):
		return 404
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrIncorrectMode),
		errors.Is(err, model.ErrIncorrectParams),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrEmptyWMark):
		return 400
	default:
		return 500
	}
}

// errorText - для 500-х из ядра отдаем общий префикс и исходный текст ошибки
func errorText(err error) string {
	if errorCodeDefiner(err) == 500 && !errors.Is(err, model.ErrCommon500) {
		return "failed to apply watermark: " + err.Error()
	}
	return err.Error()
}

// CORSMiddleware - разрешаем фронтенду с любого origin звать API
func CORSMiddleware(ctx *ginext.Context) {
	h := ctx.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
	h.Set("Access-Control-Expose-Headers", "X-Job-Id, X-Request-Id")
	ctx.Next()
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
