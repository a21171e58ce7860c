// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

const (
	mainImageField      = "main_image"
	watermarkImageField = "watermark_image"
)

type WatermarkHandler struct {
	service        WatermarkService
	maxUploadBytes int64
}

type WatermarkService interface {
	Apply(ctx context.Context, req *model.WatermarkRequest) (*model.WatermarkResult, error)
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)   // прям скачать результат
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) // получить список из журнала
}

func NewWatermarkHandler(svc WatermarkService, maxUploadBytes int64) *WatermarkHandler {
	return &WatermarkHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h WatermarkHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// Preflight - ответ на OPTIONS от браузера, заголовки CORS уже выставлены мидлварью
func (h WatermarkHandler) Preflight(ctx *ginext.Context) {
	ctx.Status(http.StatusNoContent)
}

func (h WatermarkHandler) AddWatermark(ctx *ginext.Context) {
	if h.maxUploadBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxUploadBytes)
	}

	// парсинг обоих файлов - оба обязательны
	mainName, mainImg, err := readFormFile(ctx, mainImageField)
	if err != nil {
		uploadError(ctx, err, model.ErrEmptySource)
		return
	}
	wmName, wmImg, err := readFormFile(ctx, watermarkImageField)
	if err != nil {
		uploadError(ctx, err, model.ErrEmptyWMark)
		return
	}

	// собираем все в структуру
	req := model.WatermarkRequest{
		Mode:          ctx.PostForm("mode"),
		MainName:      mainName,
		MainImg:       mainImg,
		WatermarkName: wmName,
		WatermarkImg:  wmImg,
	}
	if err := parseOptionalParams(ctx, &req); err != nil {
		ctx.JSON(400, map[string]string{"error": err.Error()})
		return
	}

	// передаем в сервис
	res, err := h.service.Apply(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": errorText(err)})
		return
	}

	ctx.Header("X-Job-Id", res.JobID.String())
	ctx.Data(200, res.ContentType, res.Data)
}

func (h WatermarkHandler) GetAllJobs(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h WatermarkHandler) LoadResult(ctx *ginext.Context) {
	id := ctx.Param("id")

	res, cType, err := h.service.LoadResult(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for job id %q: %v", n, id, err)
	}
}

func readFormFile(ctx *ginext.Context, field string) (string, []byte, error) {
	file, header, err := ctx.Request.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	defer closeFileFlow(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%s is empty", field)
	}
	return filename(header), data, nil
}

// uploadError - слишком большой запрос отдельно от отсутствующего файла
func uploadError(ctx *ginext.Context, err, missing error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		ctx.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit)})
		return
	}
	ctx.JSON(400, map[string]string{"error": missing.Error()})
}

func filename(h *multipart.FileHeader) string {
	if h == nil {
		return ""
	}
	return h.Filename
}

// parseOptionalParams - необязательные поля формы, пустое поле = дефолт
func parseOptionalParams(ctx *ginext.Context, req *model.WatermarkRequest) error {
	var err error
	if req.WidthScale, err = formFloat(ctx, "width_scale"); err != nil {
		return err
	}
	if req.WatermarkOpacity, err = formFloat(ctx, "opacity"); err != nil {
		return err
	}
	if req.ForegroundOpacity, err = formFloat(ctx, "fg_opacity"); err != nil {
		return err
	}
	if req.Padding, err = formInt(ctx, "padding"); err != nil {
		return err
	}
	if req.X, err = formInt(ctx, "x_axis"); err != nil {
		return err
	}
	if req.Y, err = formInt(ctx, "y_axis"); err != nil {
		return err
	}
	if v := ctx.PostForm("tile"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: tile=%q", model.ErrIncorrectParams, v)
		}
		req.Tile = &b
	}
	return nil
}

func formFloat(ctx *ginext.Context, key string) (*float64, error) {
	v := ctx.PostForm(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", model.ErrIncorrectParams, key, v)
	}
	return &f, nil
}

func formInt(ctx *ginext.Context, key string) (*int, error) {
	v := ctx.PostForm(key)
	if v == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", model.ErrIncorrectParams, key, v)
	}
	return &i, nil
}
