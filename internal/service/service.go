// Package service provides business-logic for the app
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/UnendingLoop/ImageWatermarker/internal/imageproc"
	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/UnendingLoop/ImageWatermarker/internal/mwlogger"
	"github.com/UnendingLoop/ImageWatermarker/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type WatermarkService struct {
	repo      repository.JobRepo
	publisher TaskPublisher
	storage   ImageStorage
	defaults  func(model.Mode) imageproc.Params
}

func NewWatermarkService(jobRepo repository.JobRepo, pub TaskPublisher, strg ImageStorage, defaults func(model.Mode) imageproc.Params) *WatermarkService {
	if defaults == nil {
		defaults = imageproc.DefaultParams
	}
	return &WatermarkService{
		repo:      jobRepo,
		publisher: pub,
		storage:   strg,
		defaults:  defaults,
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// NoopPublisher - ЗАГЛУШКА на случай, когда KAFKA_BROKER не задан
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error {
	return nil
}

// ImageStorage - контракт для работы с хранилищем
type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  1.5,
}

func (c WatermarkService) Apply(ctx context.Context, req *model.WatermarkRequest) (*model.WatermarkResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	// валидируем вход
	mode, params, err := c.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	job := newJob(req, mode)
	c.journalCreate(ctx, job)

	// кладем в хранилище оба исходника
	if err := c.storage.Put(ctx, job.SourceKey, int64(len(req.MainImg)), detectContentType(req.MainImg), bytes.NewReader(req.MainImg)); err != nil {
		logger.Error().Err(err).Msg("Failed to save main image in Storage")
		c.fail(ctx, job, err)
		return nil, model.ErrCommon500
	}
	if err := c.storage.Put(ctx, job.WatermarkKey, int64(len(req.WatermarkImg)), detectContentType(req.WatermarkImg), bytes.NewReader(req.WatermarkImg)); err != nil {
		logger.Error().Err(err).Msg("Failed to save watermark in Storage")
		c.fail(ctx, job, err)
		return nil, model.ErrCommon500
	}

	// само наложение
	result, size, err := imageproc.Watermarker(bytes.NewReader(req.MainImg), bytes.NewReader(req.WatermarkImg), mode, params)
	if err != nil {
		logger.Error().Err(err).Str("job", job.UID.String()).Msg("Failed to apply watermark")
		c.fail(ctx, job, err)
		return nil, err
	}

	data, err := io.ReadAll(result)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read encoded result")
		c.fail(ctx, job, err)
		return nil, model.ErrCommon500
	}

	// сохраняем результат
	if err := c.storage.Put(ctx, job.ResultKey, size, model.PNG, bytes.NewReader(data)); err != nil {
		logger.Error().Err(err).Msg("Failed to save result image in Storage")
		c.fail(ctx, job, err)
		return nil, model.ErrCommon500
	}

	job.Status = model.StatusDone
	c.finish(ctx, job)

	logger.Info().Str("job", job.UID.String()).Str("mode", string(mode)).Str("result", job.ResultKey).Msg("Watermark applied")

	return &model.WatermarkResult{
		JobID:       job.UID,
		ResultKey:   job.ResultKey,
		ContentType: model.PNG,
		Data:        data,
	}, nil
}

func (c WatermarkService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch jobs list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c WatermarkService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, "", model.ErrIncorrectID
	}

	res, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			return nil, "", model.ErrJobNotFound
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch job %q from DB", id))
		return nil, "", model.ErrCommon500
	}
	if res.Status != model.StatusDone {
		return nil, "", model.ErrResultNotReady
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, res.ResultKey)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch result-image of job %q from Storage", id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

// normalizeRequest - режим и параметры: дефолты режима, поверх них то, что пришло в запросе
func (c WatermarkService) normalizeRequest(req *model.WatermarkRequest) (model.Mode, imageproc.Params, error) {
	if req == nil || len(req.MainImg) == 0 {
		return "", imageproc.Params{}, model.ErrEmptySource
	}
	if len(req.WatermarkImg) == 0 {
		return "", imageproc.Params{}, model.ErrEmptyWMark
	}

	mode := model.ModeOverlay
	if req.Mode != "" {
		m, err := model.ParseMode(req.Mode)
		if err != nil {
			return "", imageproc.Params{}, err
		}
		mode = m
	}

	p := c.defaults(mode)
	if req.WidthScale != nil {
		p.WidthScale = *req.WidthScale
	}
	if req.WatermarkOpacity != nil {
		p.WatermarkOpacity = *req.WatermarkOpacity
	}
	if req.ForegroundOpacity != nil {
		p.ForegroundOpacity = *req.ForegroundOpacity
	}
	if req.Tile != nil {
		p.Tile = *req.Tile
	}
	if req.Padding != nil {
		p.Padding = *req.Padding
	}

	// позиция имеет смысл только без замощения и только целиком
	if (req.X == nil) != (req.Y == nil) {
		return "", imageproc.Params{}, fmt.Errorf("%w: both x_axis and y_axis are required for position", model.ErrIncorrectParams)
	}
	if req.X != nil {
		pos := image.Pt(*req.X, *req.Y)
		p.Position = &pos
	}

	if err := p.Validate(); err != nil {
		return "", imageproc.Params{}, err
	}
	return mode, p, nil
}

func (c WatermarkService) journalCreate(ctx context.Context, job *model.Job) {
	if err := c.repo.Create(ctx, job); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("job", job.UID.String()).Msg("Failed to create job in DB")
	}
}

func (c WatermarkService) fail(ctx context.Context, job *model.Job, cause error) {
	job.Status = model.StatusFailed
	job.ErrMsg = append(job.ErrMsg, cause.Error())
	c.finish(ctx, job)
}

// finish - фиксируем итог в журнале и отправляем событие в очередь; ошибки только логируются
func (c WatermarkService) finish(ctx context.Context, job *model.Job) {
	logger := mwlogger.LoggerFromContext(ctx)

	now := time.Now().UTC()
	job.UpdatedAt = &now
	if job.Status != model.StatusDone {
		job.ResultKey = ""
	}

	if err := c.repo.Finish(ctx, job); err != nil {
		logger.Error().Err(err).Str("job", job.UID.String()).Msg("Failed to save job result in DB")
	}

	event := model.JobEvent{
		UID:       job.UID.String(),
		Mode:      job.Mode,
		Status:    job.Status,
		ResultKey: job.ResultKey,
		At:        now,
	}
	if len(job.ErrMsg) > 0 {
		event.Error = job.ErrMsg[len(job.ErrMsg)-1]
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal job event")
		return
	}
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(event.UID), payload); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish job %q to event-queue", event.UID))
	}
}
