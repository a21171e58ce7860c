package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/wb-go/wbf/retry"
)

// MOCK RESPOSITORY

type mockRepo struct {
	createFn  func(ctx context.Context, j *model.Job) error
	finishFn  func(ctx context.Context, j *model.Job) error
	getFn     func(ctx context.Context, id string) (*model.Job, error)
	getListFn func(ctx context.Context, req *model.ListRequest) ([]model.Job, error)
}

func (m *mockRepo) Create(ctx context.Context, j *model.Job) error {
	return m.createFn(ctx, j)
}

func (m *mockRepo) Finish(ctx context.Context, j *model.Job) error {
	return m.finishFn(ctx, j)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	return m.getListFn(ctx, req)
}

// MOCK STORAGE - in-memory, ключ -> содержимое

type mockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
	putErr  map[string]error // ошибка Put по префиксу ключа
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: map[string][]byte{}, ctypes: map[string]string{}, putErr: map[string]error{}}
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for prefix, err := range m.putErr {
		if strings.HasPrefix(key, prefix) {
			return err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.ctypes[key] = ct
	return nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, "", os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), m.ctypes[key], nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *mockStorage) keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			res = append(res, k)
		}
	}
	return res
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}
