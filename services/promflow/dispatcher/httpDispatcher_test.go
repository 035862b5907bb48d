package dispatcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func createMockArgs() ArgsHTTPDispatcher {
	return ArgsHTTPDispatcher{
		Path:     "query",
		Timeout:  time.Second,
		Observer: &observerStub{},
	}
}

func TestNewHTTPDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("nil observer should error", func(t *testing.T) {
		args := createMockArgs()
		args.Observer = nil

		d, err := NewHTTPDispatcher(args)
		assert.Nil(t, d)
		assert.True(t, d.IsInterfaceNil())
		assert.Equal(t, errNilObserver, err)
	})
	t.Run("zero timeout should use the default one", func(t *testing.T) {
		args := createMockArgs()
		args.Timeout = 0

		d, err := NewHTTPDispatcher(args)
		require.NoError(t, err)
		assert.False(t, d.IsInterfaceNil())
		assert.Equal(t, DefaultTimeout, d.timeout)
	})
}

func TestHTTPDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("should send method, body, content type and caller headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/metrics/job/test", r.URL.Path)
			assert.Equal(t, "text/plain; version=0.0.4", r.Header.Get("Content-Type"))
			assert.Equal(t, "tenant-a", r.Header.Get("X-Scope-OrgID"))
			_, _, hasAuth := r.BasicAuth()
			assert.False(t, hasAuth)

			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "m 1\n", string(body))

			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("accepted"))
		}))
		defer server.Close()

		args := createMockArgs()
		args.Headers = map[string]string{"X-Scope-OrgID": "tenant-a"}
		d, _ := NewHTTPDispatcher(args)

		resp, err := d.Dispatch(context.Background(), Request{
			Method:      http.MethodPost,
			URL:         server.URL + "/metrics/job/test",
			ContentType: "text/plain; version=0.0.4",
			Body:        []byte("m 1\n"),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "accepted", string(resp.Body))
	})
	t.Run("caller content type should override the default one", func(t *testing.T) {
		t.Parallel()

		var received string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r.Header.Get("Content-Type")
		}))
		defer server.Close()

		args := createMockArgs()
		args.Headers = map[string]string{"content-type": "application/x-custom"}
		d, _ := NewHTTPDispatcher(args)

		_, err := d.Dispatch(context.Background(), Request{
			Method:      http.MethodGet,
			URL:         server.URL,
			ContentType: "application/json",
		})
		require.NoError(t, err)
		assert.Equal(t, "application/x-custom", received)
	})
	t.Run("basic auth should be attached when both username and password are present", func(t *testing.T) {
		t.Parallel()

		var username, password string
		var hasAuth bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, hasAuth = r.BasicAuth()
		}))
		defer server.Close()

		args := createMockArgs()
		args.Username = strPtr("")
		args.Password = strPtr("secret")
		d, _ := NewHTTPDispatcher(args)

		_, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
		require.NoError(t, err)
		assert.True(t, hasAuth)
		assert.Equal(t, "", username)
		assert.Equal(t, "secret", password)
	})
	t.Run("basic auth should not be attached when the password is missing", func(t *testing.T) {
		t.Parallel()

		hasAuth := true
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _, hasAuth = r.BasicAuth()
		}))
		defer server.Close()

		args := createMockArgs()
		args.Username = strPtr("admin")
		d, _ := NewHTTPDispatcher(args)

		_, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
		require.NoError(t, err)
		assert.False(t, hasAuth)
	})
	t.Run("status code >= 400 should return a remote call error carrying the body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":"error","error":"parse error"}`))
		}))
		defer server.Close()

		var observedErr error
		args := createMockArgs()
		args.Observer = &observerStub{
			ObserveDispatchHandler: func(path string, duration time.Duration, err error) {
				assert.Equal(t, "query", path)
				observedErr = err
			},
		}
		d, _ := NewHTTPDispatcher(args)

		resp, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
		assert.Nil(t, resp)

		var remoteErr *RemoteCallError
		require.True(t, errors.As(err, &remoteErr))
		assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
		assert.Equal(t, `{"status":"error","error":"parse error"}`, remoteErr.Body)
		assert.Contains(t, err.Error(), "parse error")
		assert.Equal(t, err, observedErr)
	})
	t.Run("status code 3xx without redirect location should be a success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotModified)
		}))
		defer server.Close()

		d, _ := NewHTTPDispatcher(createMockArgs())
		resp, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	})
	t.Run("unreachable endpoint should return a transport failure", func(t *testing.T) {
		t.Parallel()

		d, _ := NewHTTPDispatcher(createMockArgs())
		resp, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: "http://127.0.0.1:1"})
		assert.Nil(t, resp)
		assert.True(t, errors.Is(err, ErrTransportFailure))
	})
	t.Run("every call should use its own connection", func(t *testing.T) {
		t.Parallel()

		var numConnections atomic.Int32
		server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
			if state == http.StateNew {
				numConnections.Add(1)
			}
		}
		server.Start()
		defer server.Close()

		d, _ := NewHTTPDispatcher(createMockArgs())
		for i := 0; i < 3; i++ {
			_, err := d.Dispatch(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), numConnections.Load())
	})
}

type observerStub struct {
	ObserveDispatchHandler func(path string, duration time.Duration, err error)
}

func (stub *observerStub) ObserveDispatch(path string, duration time.Duration, err error) {
	if stub.ObserveDispatchHandler != nil {
		stub.ObserveDispatchHandler(path, duration, err)
	}
}

func (stub *observerStub) IsInterfaceNil() bool {
	return stub == nil
}

type dispatcherStub struct {
	DispatchHandler func(ctx context.Context, request Request) (*Response, error)
}

func (stub *dispatcherStub) Dispatch(ctx context.Context, request Request) (*Response, error) {
	return stub.DispatchHandler(ctx, request)
}

func (stub *dispatcherStub) IsInterfaceNil() bool {
	return stub == nil
}

type taskStub struct {
	buildErr  error
	handled   *Response
	returnVal string
}

func (ts *taskStub) BuildRequest(_ context.Context) (Request, error) {
	return Request{Method: http.MethodGet, URL: "http://localhost"}, ts.buildErr
}

func (ts *taskStub) HandleResponse(_ context.Context, response *Response) (string, error) {
	ts.handled = response
	return ts.returnVal, nil
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("nil dispatcher should error", func(t *testing.T) {
		_, err := Run[string](context.Background(), nil, &taskStub{})
		assert.Equal(t, errNilDispatcher, err)
	})
	t.Run("build error should not dispatch", func(t *testing.T) {
		expectedErr := errors.New("build error")
		d := &dispatcherStub{
			DispatchHandler: func(ctx context.Context, request Request) (*Response, error) {
				require.Fail(t, "should not dispatch")
				return nil, nil
			},
		}

		_, err := Run[string](context.Background(), d, &taskStub{buildErr: expectedErr})
		assert.Equal(t, expectedErr, err)
	})
	t.Run("dispatch error should not reach the handler", func(t *testing.T) {
		expectedErr := &RemoteCallError{StatusCode: 500, Body: "boom"}
		d := &dispatcherStub{
			DispatchHandler: func(ctx context.Context, request Request) (*Response, error) {
				return nil, expectedErr
			},
		}

		task := &taskStub{}
		_, err := Run[string](context.Background(), d, task)
		assert.Equal(t, expectedErr, err)
		assert.Nil(t, task.handled)
	})
	t.Run("should work", func(t *testing.T) {
		d := &dispatcherStub{
			DispatchHandler: func(ctx context.Context, request Request) (*Response, error) {
				return &Response{StatusCode: 200, Body: []byte("ok")}, nil
			},
		}

		task := &taskStub{returnVal: "done"}
		result, err := Run[string](context.Background(), d, task)
		require.NoError(t, err)
		assert.Equal(t, "done", result)
		assert.Equal(t, "ok", string(task.handled.Body))
	})
}
