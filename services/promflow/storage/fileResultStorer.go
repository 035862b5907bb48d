package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

const (
	resultsFileExtension = ".jsonl"
	fileScheme           = "file"
	writeBufferSize      = 32 * 1024
)

var (
	// ErrInvalidReference signals a reference that was not produced by this storer
	ErrInvalidReference = errors.New("invalid stored results reference")
	// ErrResultsNotFound signals a valid reference whose file does not exist
	ErrResultsNotFound = errors.New("stored results not found")
)

type fileResultStorer struct {
	directory string
}

// NewFileResultStorer creates a storer writing one JSON record per line in files under the provided directory
func NewFileResultStorer(directory string) (*fileResultStorer, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	err = os.MkdirAll(absDir, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &fileResultStorer{
		directory: absDir,
	}, nil
}

// Store writes the records in order and returns a file:// reference once the file is synced
func (s *fileResultStorer) Store(ctx context.Context, records []common.MetricRecord) (string, error) {
	path := filepath.Join(s.directory, uuid.NewString()+resultsFileExtension)

	err := writeRecords(ctx, path, records)
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	log.Debug("stored query results", "path", path, "records", len(records))

	return (&url.URL{Scheme: fileScheme, Path: filepath.ToSlash(path)}).String(), nil
}

func writeRecords(ctx context.Context, path string, records []common.MetricRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	writer := bufio.NewWriterSize(f, writeBufferSize)
	encoder := json.NewEncoder(writer)
	for _, record := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = encoder.Encode(record)
		if err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("failed to flush results file: %w", err)
	}

	return f.Sync()
}

// Load reads back the records behind a reference returned by Store
func (s *fileResultStorer) Load(ctx context.Context, reference string) ([]common.MetricRecord, error) {
	path, err := s.resolve(reference)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResultsNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	records := make([]common.MetricRecord, 0)
	decoder := json.NewDecoder(bufio.NewReaderSize(f, writeBufferSize))
	for decoder.More() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var record common.MetricRecord
		err = decoder.Decode(&record)
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// resolve accepts either a file:// reference or a bare file name and makes sure it points inside the directory
func (s *fileResultStorer) resolve(reference string) (string, error) {
	path := reference
	if strings.Contains(reference, "://") {
		u, err := url.Parse(reference)
		if err != nil || u.Scheme != fileScheme {
			return "", fmt.Errorf("%w: %s", ErrInvalidReference, reference)
		}
		path = filepath.FromSlash(u.Path)
	} else {
		path = filepath.Join(s.directory, reference)
	}

	path = filepath.Clean(path)
	if filepath.Dir(path) != s.directory || filepath.Ext(path) != resultsFileExtension {
		return "", fmt.Errorf("%w: %s", ErrInvalidReference, reference)
	}

	return path, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *fileResultStorer) IsInterfaceNil() bool {
	return s == nil
}
