package service

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки
	sort := strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(sort, model.ByUUID):
		req.Sort = "job_uid"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валадируем порядок
	order := strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

// newJob - запись журнала и ключи хранилища. UUID в ключах разводит одноименные файлы параллельных запросов
func newJob(req *model.WatermarkRequest, mode model.Mode) *model.Job {
	uid := uuid.New()
	mainName := cleanFileName(req.MainName, "main_image")
	wmName := cleanFileName(req.WatermarkName, "watermark_image")
	now := time.Now().UTC()

	return &model.Job{
		UID:           uid,
		Mode:          mode,
		SourceName:    mainName,
		WatermarkName: wmName,
		SourceKey:     model.UploadsDir + "/" + uid.String() + "_" + mainName,
		WatermarkKey:  model.UploadsDir + "/" + uid.String() + "_" + wmName,
		ResultKey:     resultKey(uid, mainName),
		Status:        model.StatusCreated,
		CreatedAt:     &now,
	}
}

// resultKey - имя результата выводится из имени основы: results/<uid>_<name>_watermarked.png
func resultKey(uid uuid.UUID, mainName string) string {
	stem := strings.TrimSuffix(mainName, filepath.Ext(mainName))
	if stem == "" {
		stem = "image"
	}
	return model.ResultsDir + "/" + uid.String() + "_" + stem + model.ResultToken + model.ResultExt
}

// cleanFileName - только базовое имя, без каталогов клиента
func cleanFileName(name, fallback string) string {
	base := filepath.Base(filepath.ToSlash(strings.ReplaceAll(name, "\\", "/")))
	switch base {
	case ".", "/", "..", "":
		return fallback
	}
	return base
}

func detectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
