package dispatcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

// DefaultTimeout is the HTTP timeout used when none is configured
const DefaultTimeout = 30 * time.Second

const contentTypeHeader = "Content-Type"

var log = logger.GetOrCreate("dispatcher")

// Request describes one outbound call
type Request struct {
	Method      string
	URL         string
	ContentType string
	Body        []byte
}

// Response holds the raw answer of a call classified as successful
type Response struct {
	StatusCode int
	Body       []byte
}

// ArgsHTTPDispatcher holds the arguments needed to create a new HTTP dispatcher.
// Basic auth is enabled when both Username and Password are set, even if they point to empty strings.
type ArgsHTTPDispatcher struct {
	Path               string
	Username           *string
	Password           *string
	Headers            map[string]string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Observer           DispatchObserver
}

type httpDispatcher struct {
	path               string
	username           *string
	password           *string
	headers            map[string]string
	timeout            time.Duration
	insecureSkipVerify bool
	observer           DispatchObserver
}

// NewHTTPDispatcher creates a new HTTP dispatcher
func NewHTTPDispatcher(args ArgsHTTPDispatcher) (*httpDispatcher, error) {
	if check.IfNil(args.Observer) {
		return nil, errNilObserver
	}

	timeout := args.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := make(map[string]string, len(args.Headers))
	for name, value := range args.Headers {
		headers[name] = value
	}

	return &httpDispatcher{
		path:               args.Path,
		username:           args.Username,
		password:           args.Password,
		headers:            headers,
		timeout:            timeout,
		insecureSkipVerify: args.InsecureSkipVerify,
		observer:           args.Observer,
	}, nil
}

// Dispatch sends the request and returns the response if its status code is below 400
func (d *httpDispatcher) Dispatch(ctx context.Context, request Request) (*Response, error) {
	start := time.Now()
	response, err := d.dispatch(ctx, request)
	d.observer.ObserveDispatch(d.path, time.Since(start), err)

	return response, err
}

func (d *httpDispatcher) dispatch(ctx context.Context, request Request) (*Response, error) {
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	d.applyHeaders(req, request.ContentType)
	if d.username != nil && d.password != nil {
		req.SetBasicAuth(*d.username, *d.password)
	}

	client := d.createHTTPClient()
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransportFailure, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RemoteCallError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	log.Trace("request dispatched", "method", request.Method, "url", request.URL, "status", resp.StatusCode)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

// applyHeaders sets the mandatory content type first so the caller headers can override it
func (d *httpDispatcher) applyHeaders(req *http.Request, contentType string) {
	if contentType != "" {
		req.Header.Set(contentTypeHeader, contentType)
	}

	names := make([]string, 0, len(d.headers))
	for name := range d.headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		req.Header.Set(name, d.headers[name])
	}
}

// createHTTPClient creates a client that opens a fresh connection for every call
func (d *httpDispatcher) createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: d.timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: d.insecureSkipVerify,
			},
			DisableKeepAlives: true,
		},
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (d *httpDispatcher) IsInterfaceNil() bool {
	return d == nil
}
