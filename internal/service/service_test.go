package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

func encodedImage(t *testing.T, w, h int, c color.NRGBA, format imaging.Format) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, c), format))
	return buf.Bytes()
}

type recorded struct {
	created  []*model.Job
	finished []model.Job
	events   []model.JobEvent
}

func newTestService(t *testing.T, strg *mockStorage) (*WatermarkService, *recorded) {
	t.Helper()
	rec := &recorded{}

	repo := &mockRepo{
		createFn: func(ctx context.Context, j *model.Job) error {
			rec.created = append(rec.created, j)
			return nil
		},
		finishFn: func(ctx context.Context, j *model.Job) error {
			rec.finished = append(rec.finished, *j)
			return nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			var ev model.JobEvent
			require.NoError(t, json.Unmarshal(v, &ev))
			require.Equal(t, string(key), ev.UID)
			rec.events = append(rec.events, ev)
			return nil
		},
	}

	return NewWatermarkService(repo, pub, strg, nil), rec
}

func validRequest(t *testing.T) *model.WatermarkRequest {
	return &model.WatermarkRequest{
		MainName:      "photos/holiday.jpg",
		MainImg:       encodedImage(t, 200, 100, color.NRGBA{R: 255, A: 255}, imaging.JPEG),
		WatermarkName: "logo.png",
		WatermarkImg:  encodedImage(t, 40, 20, color.NRGBA{B: 255, A: 255}, imaging.PNG),
	}
}

// APPLY - SUCCESS
func TestWatermarkService_Apply_OK(t *testing.T) {
	strg := newMockStorage()
	svc, rec := newTestService(t, strg)

	for _, mode := range []string{"", "overlay", "BEHIND"} {
		req := validRequest(t)
		req.Mode = mode

		res, err := svc.Apply(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, model.PNG, res.ContentType)
		require.True(t, strings.HasPrefix(res.ResultKey, "results/"+res.JobID.String()+"_holiday_watermarked"))
		require.True(t, strings.HasSuffix(res.ResultKey, ".png"))

		img, format, err := image.Decode(bytes.NewReader(res.Data))
		require.NoError(t, err)
		require.Equal(t, "png", format)
		require.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

		stored, cType, err := strg.Get(context.Background(), res.ResultKey)
		require.NoError(t, err)
		storedData, err := io.ReadAll(stored)
		require.NoError(t, err)
		require.Equal(t, res.Data, storedData)
		require.Equal(t, model.PNG, cType)
	}

	require.Len(t, strg.keys("uploads/"), 6)
	require.Len(t, strg.keys("results/"), 3)

	require.Len(t, rec.created, 3)
	require.Equal(t, model.ModeOverlay, rec.created[0].Mode)
	require.Equal(t, model.ModeBehind, rec.created[2].Mode)
	require.Equal(t, "holiday.jpg", rec.created[0].SourceName)

	require.Len(t, rec.events, 3)
	for _, ev := range rec.events {
		require.Equal(t, model.StatusDone, ev.Status)
		require.Empty(t, ev.Error)
	}
	for _, j := range rec.finished {
		require.Equal(t, model.StatusDone, j.Status)
		require.NotNil(t, j.UpdatedAt)
	}
}

// APPLY - VALIDATION FAIL
func TestWatermarkService_Apply_InvalidInput(t *testing.T) {
	neg := -1
	big := 1.5
	huge := 1e9
	nan := math.NaN()
	inf := math.Inf(1)
	x := 10

	tests := []struct {
		name    string
		mutate  func(r *model.WatermarkRequest)
		wantErr error
	}{
		{name: "no main image", mutate: func(r *model.WatermarkRequest) { r.MainImg = nil }, wantErr: model.ErrEmptySource},
		{name: "no watermark", mutate: func(r *model.WatermarkRequest) { r.WatermarkImg = nil }, wantErr: model.ErrEmptyWMark},
		{name: "bad mode", mutate: func(r *model.WatermarkRequest) { r.Mode = "sideways" }, wantErr: model.ErrIncorrectMode},
		{name: "negative padding", mutate: func(r *model.WatermarkRequest) { r.Padding = &neg }, wantErr: model.ErrIncorrectParams},
		{name: "opacity above one", mutate: func(r *model.WatermarkRequest) { r.WatermarkOpacity = &big }, wantErr: model.ErrIncorrectParams},
		{name: "half a position", mutate: func(r *model.WatermarkRequest) { r.X = &x }, wantErr: model.ErrIncorrectParams},
		{name: "width scale far above one", mutate: func(r *model.WatermarkRequest) { r.WidthScale = &huge }, wantErr: model.ErrIncorrectParams},
		{name: "NaN width scale", mutate: func(r *model.WatermarkRequest) { r.WidthScale = &nan }, wantErr: model.ErrIncorrectParams},
		{name: "infinite opacity", mutate: func(r *model.WatermarkRequest) { r.WatermarkOpacity = &inf }, wantErr: model.ErrIncorrectParams},
		{name: "NaN fg opacity", mutate: func(r *model.WatermarkRequest) { r.Mode, r.ForegroundOpacity = "behind", &nan }, wantErr: model.ErrIncorrectParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strg := newMockStorage()
			svc, rec := newTestService(t, strg)

			req := validRequest(t)
			tt.mutate(req)

			_, err := svc.Apply(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Empty(t, strg.keys(""))
			require.Empty(t, rec.created)
		})
	}

	svc, _ := newTestService(t, newMockStorage())
	_, err := svc.Apply(context.Background(), nil)
	require.ErrorIs(t, err, model.ErrEmptySource)
}

// APPLY - BROKEN IMAGE
func TestWatermarkService_Apply_DecodeError(t *testing.T) {
	strg := newMockStorage()
	svc, rec := newTestService(t, strg)

	req := validRequest(t)
	req.WatermarkImg = []byte("definitely not an image")

	_, err := svc.Apply(context.Background(), req)
	require.ErrorIs(t, err, model.ErrDecode)
	require.Empty(t, strg.keys("results/"))

	require.Len(t, rec.finished, 1)
	require.Equal(t, model.StatusFailed, rec.finished[0].Status)
	require.Empty(t, rec.finished[0].ResultKey)
	require.Len(t, rec.events, 1)
	require.NotEmpty(t, rec.events[0].Error)
}

// APPLY - HEADER CLAIMS A HUGE CANVAS
func TestWatermarkService_Apply_OversizedImage(t *testing.T) {
	strg := newMockStorage()
	svc, _ := newTestService(t, strg)

	// PNG из одного IHDR на 60000x60000 - около сотни байт
	var bomb bytes.Buffer
	bomb.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := []byte("IHDR\x00\x00\xea\x60\x00\x00\xea\x60\x08\x06\x00\x00\x00")
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], 13)
	bomb.Write(n[:])
	bomb.Write(ihdr)
	binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(ihdr))
	bomb.Write(n[:])

	req := validRequest(t)
	req.MainImg = bomb.Bytes()

	_, err := svc.Apply(context.Background(), req)
	require.ErrorIs(t, err, model.ErrDecode)
	require.Empty(t, strg.keys("results/"))
}

// APPLY - STORAGE PUT FAIL
func TestWatermarkService_Apply_StorageError(t *testing.T) {
	for _, prefix := range []string{"uploads/", "results/"} {
		strg := newMockStorage()
		strg.putErr[prefix] = errors.New("storage is down")
		svc, rec := newTestService(t, strg)

		_, err := svc.Apply(context.Background(), validRequest(t))
		require.ErrorIs(t, err, model.ErrCommon500)
		require.Equal(t, model.StatusFailed, rec.finished[0].Status)
	}
}

// APPLY - JOURNAL AND QUEUE FAILURES DON'T BREAK THE REQUEST
func TestWatermarkService_Apply_AuxFailures(t *testing.T) {
	repo := &mockRepo{
		createFn: func(ctx context.Context, j *model.Job) error { return errors.New("db down") },
		finishFn: func(ctx context.Context, j *model.Job) error { return errors.New("db down") },
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error { return errors.New("kafka down") },
	}
	svc := NewWatermarkService(repo, pub, newMockStorage(), nil)

	res, err := svc.Apply(context.Background(), validRequest(t))
	require.NoError(t, err)
	require.NotEmpty(t, res.Data)
}

// GETLIST - SUCCESS
func TestWatermarkService_GetList_OK(t *testing.T) {
	repo := &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
			require.Equal(t, 1, req.Page)
			require.Equal(t, 30, req.Limit)
			require.Equal(t, "created_at", req.Sort)
			require.Equal(t, "DESC", req.Order)
			return []model.Job{{UID: uuid.New()}}, nil
		},
	}

	svc := NewWatermarkService(repo, NoopPublisher{}, newMockStorage(), nil)

	res, err := svc.GetList(context.Background(), &model.ListRequest{})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

// GETLIST - DB FAIL
func TestWatermarkService_GetList_Error(t *testing.T) {
	repo := &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
			return nil, errors.New("db down")
		},
	}

	svc := NewWatermarkService(repo, NoopPublisher{}, newMockStorage(), nil)

	_, err := svc.GetList(context.Background(), &model.ListRequest{Sort: "uid", Order: "ascend"})
	require.ErrorIs(t, err, model.ErrCommon500)
}

// LOADRESULT
func TestWatermarkService_LoadResult(t *testing.T) {
	doneID := uuid.New()
	failedID := uuid.New()

	strg := newMockStorage()
	require.NoError(t, strg.Put(context.Background(), "results/done.png", 3, model.PNG, bytes.NewReader([]byte("png"))))

	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Job, error) {
			switch id {
			case doneID.String():
				return &model.Job{UID: doneID, Status: model.StatusDone, ResultKey: "results/done.png"}, nil
			case failedID.String():
				return &model.Job{UID: failedID, Status: model.StatusFailed}, nil
			default:
				return nil, model.ErrJobNotFound
			}
		},
	}
	svc := NewWatermarkService(repo, NoopPublisher{}, strg, nil)

	rc, cType, err := svc.LoadResult(context.Background(), doneID.String())
	require.NoError(t, err)
	require.Equal(t, model.PNG, cType)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, []byte("png"), data)

	_, _, err = svc.LoadResult(context.Background(), failedID.String())
	require.ErrorIs(t, err, model.ErrResultNotReady)

	_, _, err = svc.LoadResult(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrJobNotFound)

	_, _, err = svc.LoadResult(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, model.ErrIncorrectID)
}
