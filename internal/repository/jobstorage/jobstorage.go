// Package jobstorage keeps the job journal as JSON manifests in the image storage when no database is configured
package jobstorage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/google/uuid"
)

const (
	jobsDir  = "jobs"
	jsonType = "application/json"
)

// ObjectStore - то, что нужно журналу от хранилища
type ObjectStore interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type StorageRepo struct {
	Store ObjectStore
}

// record - в отличие от model.Job сериализует и ключи хранилища
type record struct {
	UID           uuid.UUID    `json:"uid"`
	Mode          model.Mode   `json:"mode"`
	SourceName    string       `json:"source_name"`
	WatermarkName string       `json:"watermark_name"`
	SourceKey     string       `json:"source_key"`
	WatermarkKey  string       `json:"wm_key"`
	ResultKey     string       `json:"result_key"`
	Status        model.Status `json:"status"`
	ErrMsg        []string     `json:"err_msg"`
	CreatedAt     *time.Time   `json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `json:"updated_at,omitempty"`
}

func jobKey(id string) string {
	return jobsDir + "/" + id + ".json"
}

func (s StorageRepo) Create(ctx context.Context, j *model.Job) error {
	return s.save(ctx, j)
}

// Finish - манифест перезаписывается целиком: в нем всегда последнее состояние задачи
func (s StorageRepo) Finish(ctx context.Context, j *model.Job) error {
	return s.save(ctx, j)
}

func (s StorageRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrJobNotFound
	}

	rc, _, err := s.Store.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	defer rc.Close()

	var rec record
	if err := json.NewDecoder(rc).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode job manifest %q: %w", id, err)
	}
	return rec.job(), nil
}

// GetList - читает все манифесты, сортирует и режет страницу в памяти
func (s StorageRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	keys, err := s.Store.List(ctx, jobsDir+"/")
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, jobsDir+"/"), ".json")
		job, err := s.Get(ctx, id)
		if err != nil {
			// манифест мог пропасть между List и Get
			if errors.Is(err, model.ErrJobNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	sort.SliceStable(jobs, func(a, b int) bool {
		if req.Order == "ASC" {
			return less(jobs[a], jobs[b], req.Sort)
		}
		return less(jobs[b], jobs[a], req.Sort)
	})

	offset := (req.Page - 1) * req.Limit
	if req.Page < 1 || req.Limit < 1 || offset >= len(jobs) {
		return []model.Job{}, nil
	}
	end := min(offset+req.Limit, len(jobs))
	return jobs[offset:end], nil
}

func less(a, b model.Job, column string) bool {
	if column == "job_uid" {
		return a.UID.String() < b.UID.String()
	}
	return created(a).Before(created(b))
}

func created(j model.Job) time.Time {
	if j.CreatedAt == nil {
		return time.Time{}
	}
	return *j.CreatedAt
}

func (s StorageRepo) save(ctx context.Context, j *model.Job) error {
	data, err := json.Marshal(fromJob(j))
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, jobKey(j.UID.String()), int64(len(data)), jsonType, bytes.NewReader(data))
}

func fromJob(j *model.Job) record {
	return record{
		UID:           j.UID,
		Mode:          j.Mode,
		SourceName:    j.SourceName,
		WatermarkName: j.WatermarkName,
		SourceKey:     j.SourceKey,
		WatermarkKey:  j.WatermarkKey,
		ResultKey:     j.ResultKey,
		Status:        j.Status,
		ErrMsg:        j.ErrMsg,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

func (r record) job() *model.Job {
	return &model.Job{
		UID:           r.UID,
		Mode:          r.Mode,
		SourceName:    r.SourceName,
		WatermarkName: r.WatermarkName,
		SourceKey:     r.SourceKey,
		WatermarkKey:  r.WatermarkKey,
		ResultKey:     r.ResultKey,
		Status:        r.Status,
		ErrMsg:        r.ErrMsg,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
