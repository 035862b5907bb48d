package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/decoder"
	"github.com/iulianpascalau/prom-flow/services/promflow/runner"
	"github.com/iulianpascalau/prom-flow/services/promflow/storage"
	"github.com/iulianpascalau/prom-flow/services/promflow/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_BadPayloads(t *testing.T) {
	t.Parallel()

	serv, err := NewServer(createMockArgs())
	require.NoError(t, err)

	w := doRequest(serv, http.MethodPost, "/api/query", []byte(`{bad-json}`), true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, http.MethodPost, "/api/push", []byte(`{"metrics":"nope"}`), true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, limit := range []string{"abc", "-1", "100000"} {
		w = doRequest(serv, http.MethodGet, "/api/events?limit="+limit, nil, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}

	w = doRequest(serv, http.MethodGet, "/api/unknown", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_InvocationErrors(t *testing.T) {
	t.Parallel()

	args := createMockArgs()
	args.Runner = &testsCommon.TaskRunnerStub{
		RunQueryHandler: func(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error) {
			if request.Query == "invalid" {
				return nil, fmt.Errorf("%w: empty PromQL query", runner.ErrInvalidRequest)
			}
			return nil, &decoder.RemoteQueryError{ErrorType: "bad_data", Message: "bad query"}
		},
		RunPushHandler: func(ctx context.Context, request common.PushRequest) (*common.PushOutput, error) {
			return nil, errors.New("connection refused")
		},
	}
	serv, _ := NewServer(args)

	w := doRequest(serv, http.MethodPost, "/api/query", []byte(`{"query":"invalid"}`), true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request")

	w = doRequest(serv, http.MethodPost, "/api/query", []byte(`{"query":"up"}`), true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "bad query")

	w = doRequest(serv, http.MethodPost, "/api/push", []byte(`{"job":"j"}`), true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestHandlers_StorageErrors(t *testing.T) {
	t.Parallel()

	args := createMockArgs()
	args.Events = &testsCommon.EventStoreStub{
		GetEventsHandler: func(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error) {
			return nil, errors.New("db list error")
		},
		GetEventHandler: func(ctx context.Context, id string) (*common.TriggerEvent, error) {
			return nil, errors.New("db get error")
		},
		DeleteEventHandler: func(ctx context.Context, id string) error {
			return errors.New("db del error")
		},
	}
	args.Results = &testsCommon.ResultLoaderStub{
		LoadHandler: func(ctx context.Context, reference string) ([]common.MetricRecord, error) {
			switch reference {
			case "bad":
				return nil, fmt.Errorf("%w: %s", storage.ErrInvalidReference, reference)
			case "missing.jsonl":
				return nil, fmt.Errorf("%w: %s", storage.ErrResultsNotFound, reference)
			default:
				return nil, errors.New("disk error")
			}
		},
	}
	serv, _ := NewServer(args)

	w := doRequest(serv, http.MethodGet, "/api/events", nil, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "db list error")

	w = doRequest(serv, http.MethodGet, "/api/events/id", nil, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "db get error")

	w = doRequest(serv, http.MethodDelete, "/api/events/id", nil, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "db del error")

	w = doRequest(serv, http.MethodGet, "/api/results/bad", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, http.MethodGet, "/api/results/missing.jsonl", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(serv, http.MethodGet, "/api/results/other.jsonl", nil, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
