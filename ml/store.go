package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNoModel indicates no artifact has been persisted yet. Callers fall back
// to the heuristic prediction path.
var ErrNoModel = errors.New("no model artifact")

// Store persists the trained model artifact.
type Store interface {
	Get(ctx context.Context) (*Model, error)
	Put(ctx context.Context, m *Model) error
	// Key identifies where the artifact lives, for logs and API responses.
	Key() string
}

const defaultModelKey = "models/model.json"

func GetModelBucket() (string, error) {
	b := os.Getenv("ML_MODEL_BUCKET")
	if b == "" {
		return "", fmt.Errorf("ml model bucket not set")
	}
	return b, nil
}

// S3Store keeps the model artifact as a JSON object in S3.
type S3Store struct {
	Client *s3.Client
	Bucket string
}

func (s *S3Store) Key() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, defaultModelKey)
}

func (s *S3Store) Get(ctx context.Context) (*Model, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(defaultModelKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNoModel
		}
		return nil, err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}
	return &m, nil
}

func (s *S3Store) Put(ctx context.Context, m *Model) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(defaultModelKey),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	return err
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu sync.Mutex
	m  *Model
}

func (s *MemoryStore) Key() string { return "memory" }

func (s *MemoryStore) Get(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return nil, ErrNoModel
	}
	return s.m, nil
}

func (s *MemoryStore) Put(ctx context.Context, m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = m
	return nil
}
