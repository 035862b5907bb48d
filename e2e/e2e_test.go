package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/config"
	"github.com/iulianpascalau/prom-flow/services/promflow/factory"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceKey = "test-service-key"

var log = logger.GetOrCreate("e2e-test")

const (
	emptyVectorResponse = `{"status":"success","data":{"resultType":"vector","result":[]}}`
	downTargetsResponse = `{"status":"success","data":{"resultType":"vector","result":[
		{"metric":{"__name__":"up","job":"node","instance":"10.0.0.1:9100"},"value":[1700000000.123,"0"]},
		{"metric":{"__name__":"up","job":"node","instance":"10.0.0.2:9100"},"value":[1700000000.123,"0"]}]}}`
)

func strPtr(value string) *string {
	return &value
}

func startService(t *testing.T, cfg config.Config) (factory.Server, func()) {
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.StorageDirectory = filepath.Join(t.TempDir(), "results")
	cfg.EventsDatabasePath = filepath.Join(t.TempDir(), "events.db")
	cfg.EventsRetentionSeconds = 3600
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	handler, err := factory.NewComponentsHandler(serviceKey, cfg)
	require.NoError(t, err)

	err = handler.Start()
	require.NoError(t, err)

	log.Info("======== service started, waiting a moment for the server to start")
	time.Sleep(100 * time.Millisecond)

	return handler.GetServer(), handler.Close
}

func serviceURL(t *testing.T, server factory.Server) string {
	_, port, err := net.SplitHostPort(server.Address())
	require.NoError(t, err)

	return fmt.Sprintf("http://127.0.0.1:%s", port)
}

func doRequest(t *testing.T, method string, target string, body []byte) (int, []byte) {
	req, err := http.NewRequest(method, target, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func TestE2ETriggerFlow(t *testing.T) {
	log.Info("======== 1. Start a mock Prometheus that reports down targets after the first query")
	numQueries := uint64(0)
	mockPrometheus := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "up == 0", r.URL.Query().Get("query"))
		assert.Equal(t, "tenant-1", r.Header.Get("X-Scope-OrgID"))

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "", username)
		assert.Equal(t, "secret", password)

		w.Header().Set("Content-Type", "application/json")
		if atomic.AddUint64(&numQueries, 1) == 1 {
			_, _ = w.Write([]byte(emptyVectorResponse))
			return
		}
		_, _ = w.Write([]byte(downTargetsResponse))
	}))
	defer mockPrometheus.Close()

	log.Info("======== 2. Start the service with a 1 second trigger")
	server, closeService := startService(t, config.Config{
		Name: "e2e",
		Prometheus: config.EndpointConfig{
			URL:      mockPrometheus.URL,
			Username: strPtr(""),
			Password: strPtr("secret"),
			Headers:  map[string]string{"X-Scope-OrgID": "tenant-1"},
		},
		Triggers: []config.TriggerConfig{
			{
				ID:                "target-down",
				Query:             "up == 0",
				IntervalInSeconds: 1,
			},
		},
	})
	defer closeService()
	baseURL := serviceURL(t, server)

	log.Info("======== 3. Wait for at least 3 ticks, the first one is empty")
	time.Sleep(2500 * time.Millisecond)

	log.Info("======== 4. Fetch the events of the trigger")
	code, body := doRequest(t, http.MethodGet, baseURL+"/api/events?trigger=target-down", nil)
	require.Equal(t, http.StatusOK, code)

	var eventsData struct {
		Events []common.TriggerEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(body, &eventsData))
	require.GreaterOrEqual(t, len(eventsData.Events), 2)
	require.Less(t, len(eventsData.Events), int(atomic.LoadUint64(&numQueries)))

	event := eventsData.Events[0]
	require.Equal(t, "target-down", event.TriggerID)
	require.Equal(t, 2, event.Output.Total)
	require.Equal(t, 2, event.Output.Size)
	require.Equal(t, "vector", event.Output.ResultType)
	require.Len(t, event.Output.Metrics, 2)
	require.Equal(t, "10.0.0.1:9100", event.Output.Metrics[0].Labels["instance"])
	require.Equal(t, 1700000000.123, event.Output.Metrics[0].Timestamp)
	require.Equal(t, "0", event.Output.Metrics[0].Value)

	log.Info("======== 5. Fetch a single event")
	code, body = doRequest(t, http.MethodGet, baseURL+"/api/events/"+event.ID, nil)
	require.Equal(t, http.StatusOK, code)

	var single common.TriggerEvent
	require.NoError(t, json.Unmarshal(body, &single))
	require.Equal(t, event, single)

	log.Info("======== 6. Delete the event and verify the deletion")
	code, _ = doRequest(t, http.MethodDelete, baseURL+"/api/events/"+event.ID, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = doRequest(t, http.MethodGet, baseURL+"/api/events/"+event.ID, nil)
	require.Equal(t, http.StatusNotFound, code)

	log.Info("======== 7. Check the self instrumentation")
	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	metricsBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Contains(t, string(metricsBody), `promflow_trigger_ticks_total{outcome="empty",trigger="target-down"} 1`)
	require.Contains(t, string(metricsBody), `promflow_events_emitted_total{trigger="target-down"}`)
	require.Contains(t, string(metricsBody), `promflow_dispatch_duration_seconds_count{path="query"}`)
}

func TestE2EQueryAndPushFlow(t *testing.T) {
	log.Info("======== 1. Start a mock Prometheus and a mock Pushgateway")
	mockPrometheus := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("query") == "bad(" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"error","errorType":"bad_data","error":"parse error"}`))
			return
		}
		_, _ = w.Write([]byte(downTargetsResponse))
	}))
	defer mockPrometheus.Close()

	var mutPushed sync.Mutex
	var pushedPath, pushedBody string
	mockPushgateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mutPushed.Lock()
		pushedPath = r.URL.Path
		pushedBody = string(body)
		mutPushed.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer mockPushgateway.Close()

	log.Info("======== 2. Start the service without triggers")
	server, closeService := startService(t, config.Config{
		Name:        "e2e",
		Prometheus:  config.EndpointConfig{URL: mockPrometheus.URL},
		Pushgateway: config.PushgatewayConfig{URL: mockPushgateway.URL},
	})
	defer closeService()
	baseURL := serviceURL(t, server)

	log.Info("======== 3. Query with FETCH_ONE")
	code, body := doRequest(t, http.MethodPost, baseURL+"/api/query", []byte(`{"query":"up == 0","fetchType":"FETCH_ONE"}`))
	require.Equal(t, http.StatusOK, code)

	var output common.QueryOutput
	require.NoError(t, json.Unmarshal(body, &output))
	require.Equal(t, 2, output.Total)
	require.Equal(t, 1, output.Size)
	require.NotNil(t, output.Metric)
	require.Equal(t, "10.0.0.1:9100", output.Metric.Labels["instance"])

	log.Info("======== 4. Query with STORE and read the stored results back")
	code, body = doRequest(t, http.MethodPost, baseURL+"/api/query", []byte(`{"query":"up == 0","fetchType":"STORE","time":"now"}`))
	require.Equal(t, http.StatusOK, code)

	output = common.QueryOutput{}
	require.NoError(t, json.Unmarshal(body, &output))
	require.Equal(t, 2, output.Total)
	require.Equal(t, 2, output.Size)
	require.Nil(t, output.Metrics)

	reference, err := url.Parse(output.URI)
	require.NoError(t, err)
	require.Equal(t, "file", reference.Scheme)

	code, body = doRequest(t, http.MethodGet, baseURL+"/api/results/"+path.Base(reference.Path), nil)
	require.Equal(t, http.StatusOK, code)

	var stored struct {
		Metrics []common.MetricRecord `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(body, &stored))
	require.Len(t, stored.Metrics, 2)
	require.Equal(t, "10.0.0.2:9100", stored.Metrics[1].Labels["instance"])

	log.Info("======== 5. Failing query is reported with the remote message")
	code, body = doRequest(t, http.MethodPost, baseURL+"/api/query", []byte(`{"query":"bad("}`))
	require.Equal(t, http.StatusBadGateway, code)
	require.Contains(t, string(body), "parse error")

	log.Info("======== 6. Push metrics")
	pushRequest := `{"job":"e2e","instance":"vm1","metrics":[` +
		`{"name":"deploy_version","value":"42","labels":[{"name":"env","value":"prod"},{"name":"app","value":"api"}]},` +
		`{"name":"ready","value":"1"}]}`
	code, body = doRequest(t, http.MethodPost, baseURL+"/api/push", []byte(pushRequest))
	require.Equal(t, http.StatusOK, code)

	var pushOutput common.PushOutput
	require.NoError(t, json.Unmarshal(body, &pushOutput))
	require.Equal(t, common.PushOutput{Status: "success", Code: http.StatusOK}, pushOutput)

	mutPushed.Lock()
	require.Equal(t, "/metrics/job/e2e/instance/vm1", pushedPath)
	require.Equal(t, "deploy_version{env=\"prod\",app=\"api\"} 42\nready 1\n", pushedBody)
	mutPushed.Unlock()
}
