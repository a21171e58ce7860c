package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/gin-gonic/gin"
)

type mockWatermarkService struct {
	applyFn      func(ctx context.Context, req *model.WatermarkRequest) (*model.WatermarkResult, error)
	loadResultFn func(ctx context.Context, id string) (io.ReadCloser, string, error)
	getListFn    func(ctx context.Context, req *model.ListRequest) ([]model.Job, error)
}

func (m *mockWatermarkService) Apply(ctx context.Context, req *model.WatermarkRequest) (*model.WatermarkResult, error) {
	return m.applyFn(ctx, req)
}

func (m *mockWatermarkService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return m.loadResultFn(ctx, id)
}

func (m *mockWatermarkService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	return m.getListFn(ctx, req)
}

func init() {
	gin.SetMode(gin.TestMode)
}
