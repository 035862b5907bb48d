package query

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	// DefaultURL is the Prometheus server used when no URL is configured
	DefaultURL = "http://localhost:9090"

	queryEndpoint   = "/api/v1/query"
	contentTypeJSON = "application/json"
)

var (
	log = logger.GetOrCreate("query")

	errEmptyQuery    = errors.New("empty PromQL query")
	errNilDispatcher = errors.New("nil dispatcher")
	errNilDecoder    = errors.New("nil decoder")
	errNilSelector   = errors.New("nil policy selector")
)

// ArgsQuery holds the arguments needed to create a new query task
type ArgsQuery struct {
	URL        string
	Query      string
	Time       string
	FetchType  common.FetchType
	Dispatcher dispatcher.Dispatcher
	Decoder    Decoder
	Selector   PolicySelector
}

type promQuery struct {
	baseURL    string
	query      string
	time       string
	fetchType  common.FetchType
	dispatcher dispatcher.Dispatcher
	decoder    Decoder
	selector   PolicySelector
}

// NewQuery creates an instant PromQL query task. The query string is opaque and evaluated by the server.
func NewQuery(args ArgsQuery) (*promQuery, error) {
	if len(strings.TrimSpace(args.Query)) == 0 {
		return nil, errEmptyQuery
	}
	if check.IfNil(args.Dispatcher) {
		return nil, errNilDispatcher
	}
	if check.IfNil(args.Decoder) {
		return nil, errNilDecoder
	}
	if check.IfNil(args.Selector) {
		return nil, errNilSelector
	}

	baseURL := args.URL
	if len(baseURL) == 0 {
		baseURL = DefaultURL
	}

	fetchType := args.FetchType
	if len(fetchType) == 0 {
		fetchType = common.FetchNone
	}

	return &promQuery{
		baseURL:    strings.TrimRight(baseURL, "/"),
		query:      args.Query,
		time:       args.Time,
		fetchType:  fetchType,
		dispatcher: args.Dispatcher,
		decoder:    args.Decoder,
		selector:   args.Selector,
	}, nil
}

// Run executes the query and shapes its result
func (q *promQuery) Run(ctx context.Context) (*common.QueryOutput, error) {
	return dispatcher.Run[*common.QueryOutput](ctx, q.dispatcher, q)
}

// BuildRequest creates the GET request on the instant query endpoint. The time parameter is passed verbatim.
func (q *promQuery) BuildRequest(_ context.Context) (dispatcher.Request, error) {
	params := url.Values{}
	params.Set("query", q.query)
	if len(q.time) > 0 {
		params.Set("time", q.time)
	}

	return dispatcher.Request{
		Method:      http.MethodGet,
		URL:         q.baseURL + queryEndpoint + "?" + params.Encode(),
		ContentType: contentTypeJSON,
	}, nil
}

// HandleResponse decodes the body and applies the fetch type
func (q *promQuery) HandleResponse(ctx context.Context, response *dispatcher.Response) (*common.QueryOutput, error) {
	resultType, records, err := q.decoder.Decode(response.Body)
	if err != nil {
		return nil, err
	}

	log.Debug("query executed", "query", q.query, "result type", resultType, "total", len(records))

	return q.selector.Apply(ctx, records, resultType, q.fetchType)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (q *promQuery) IsInterfaceNil() bool {
	return q == nil
}
