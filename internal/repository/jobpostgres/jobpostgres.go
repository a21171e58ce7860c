// Package jobpostgres implements the job journal on top of PostgreSQL
package jobpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

// колонки, по которым разрешена сортировка - все остальное в ORDER BY не попадает
var sortColumns = map[string]string{
	"job_uid":    "job_uid",
	"created_at": "created_at",
}

func (p PostgresRepo) Create(ctx context.Context, j *model.Job) error {
	query := `INSERT INTO watermark_jobs (job_uid, mode, source_name, watermark_name, source_key, wm_key, result_key, status, err_msg, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	return p.DB.QueryRowContext(ctx, query, j.UID, j.Mode, j.SourceName, j.WatermarkName, j.SourceKey, j.WatermarkKey, j.ResultKey, j.Status, j.ErrMsg, j.CreatedAt, j.CreatedAt).Err()
}

func (p PostgresRepo) Finish(ctx context.Context, j *model.Job) error {
	query := `UPDATE watermark_jobs SET status = $1, result_key = $2, err_msg = $3, updated_at = $4 
	WHERE job_uid = $5
	RETURNING job_uid`

	var uid string
	err := p.DB.QueryRowContext(ctx, query, j.Status, j.ResultKey, j.ErrMsg, j.UpdatedAt, j.UID).Scan(&uid)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return model.ErrJobNotFound // 404
		default:
			return err // 500
		}
	}
	return nil
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT job_uid, mode, source_name, watermark_name, source_key, wm_key, result_key, status, err_msg, created_at, updated_at 
	FROM watermark_jobs 
	WHERE job_uid = $1`
	var job model.Job

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&job.UID,
		&job.Mode,
		&job.SourceName,
		&job.WatermarkName,
		&job.SourceKey,
		&job.WatermarkKey,
		&job.ResultKey,
		&job.Status,
		&job.ErrMsg,
		&job.CreatedAt,
		&job.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrJobNotFound
		default:
			return nil, err // 500
		}
	}
	return &job, nil
}

func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	column, ok := sortColumns[req.Sort]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if req.Order == "ASC" {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT job_uid, mode, source_name, watermark_name, status, err_msg, created_at, updated_at 
	FROM watermark_jobs
	ORDER BY %s %s 
	LIMIT $1 
	OFFSET $2`, column, order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	jobs := make([]model.Job, 0, req.Limit)
	for rows.Next() {
		var job model.Job
		if err := rows.Scan(&job.UID,
			&job.Mode,
			&job.SourceName,
			&job.WatermarkName,
			&job.Status,
			&job.ErrMsg,
			&job.CreatedAt,
			&job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return jobs, nil
}
