package decoder

import (
	"fmt"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

const statusSuccess = "success"

var log = logger.GetOrCreate("decoder")

type queryResultDecoder struct{}

// NewQueryResultDecoder creates a decoder for the Prometheus query API envelope
func NewQueryResultDecoder() *queryResultDecoder {
	return &queryResultDecoder{}
}

// Decode parses the response body and flattens every result shape into metric records, in response order
func (d *queryResultDecoder) Decode(body []byte) (common.ResultType, []common.MetricRecord, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	envelope := gjson.ParseBytes(body)
	if !envelope.IsObject() {
		return "", nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	status := envelope.Get("status")
	if !status.Exists() {
		return "", nil, fmt.Errorf("%w: missing status field", ErrMalformedResponse)
	}
	if status.String() != statusSuccess {
		return "", nil, &RemoteQueryError{
			ErrorType: envelope.Get("errorType").String(),
			Message:   envelope.Get("error").String(),
		}
	}

	rawResultType := envelope.Get("data.resultType")
	if !rawResultType.Exists() {
		return "", nil, fmt.Errorf("%w: missing data.resultType field", ErrMalformedResponse)
	}

	resultType, err := common.ParseResultType(rawResultType.String())
	if err != nil {
		return "", nil, err
	}

	result := envelope.Get("data.result")

	var records []common.MetricRecord
	switch resultType {
	case common.ResultVector:
		records, err = decodeVector(result)
	case common.ResultMatrix:
		records, err = decodeMatrix(result)
	case common.ResultScalar, common.ResultString:
		records = decodeSinglePair(result)
	}
	if err != nil {
		return "", nil, err
	}

	log.Trace("decoded query response", "result type", resultType, "records", len(records))

	return resultType, records, nil
}

// decodeVector produces one record per series, skipping series without a complete [timestamp, value] pair
func decodeVector(result gjson.Result) ([]common.MetricRecord, error) {
	series, err := seriesList(result)
	if err != nil {
		return nil, err
	}

	records := make([]common.MetricRecord, 0, len(series))
	for _, s := range series {
		pair := s.Get("value")
		if !isCompletePair(pair) {
			continue
		}

		records = append(records, newRecord(extractLabels(s.Get("metric")), pair))
	}

	return records, nil
}

// decodeMatrix produces one record per [timestamp, value] pair of every series
func decodeMatrix(result gjson.Result) ([]common.MetricRecord, error) {
	series, err := seriesList(result)
	if err != nil {
		return nil, err
	}

	records := make([]common.MetricRecord, 0, len(series))
	for _, s := range series {
		values := s.Get("values")
		if !values.Exists() {
			continue
		}
		if !values.IsArray() {
			return nil, fmt.Errorf("%w: series values is not an array", ErrMalformedResponse)
		}

		labels := extractLabels(s.Get("metric"))
		for _, pair := range values.Array() {
			if !isCompletePair(pair) {
				continue
			}

			records = append(records, newRecord(copyLabels(labels), pair))
		}
	}

	return records, nil
}

// decodeSinglePair handles scalar and string results, which carry a single top level pair
func decodeSinglePair(result gjson.Result) []common.MetricRecord {
	if !isCompletePair(result) {
		return make([]common.MetricRecord, 0)
	}

	return []common.MetricRecord{newRecord(make(map[string]string), result)}
}

func seriesList(result gjson.Result) ([]gjson.Result, error) {
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: data.result is not an array", ErrMalformedResponse)
	}

	series := result.Array()
	for _, s := range series {
		if !s.IsObject() {
			return nil, fmt.Errorf("%w: series is not an object", ErrMalformedResponse)
		}
	}

	return series, nil
}

func isCompletePair(pair gjson.Result) bool {
	return pair.IsArray() && len(pair.Array()) > 1
}

func newRecord(labels map[string]string, pair gjson.Result) common.MetricRecord {
	elements := pair.Array()

	return common.MetricRecord{
		Labels:    labels,
		Timestamp: elements[0].Float(),
		Value:     rawText(elements[1]),
	}
}

// extractLabels copies every field of the metric object as text. A missing metric object yields no labels
func extractLabels(metric gjson.Result) map[string]string {
	labels := make(map[string]string)
	if !metric.IsObject() {
		return labels
	}

	metric.ForEach(func(key, value gjson.Result) bool {
		labels[key.String()] = rawText(value)
		return true
	})

	return labels
}

func copyLabels(labels map[string]string) map[string]string {
	cp := make(map[string]string, len(labels))
	for k, v := range labels {
		cp[k] = v
	}

	return cp
}

// rawText returns the token as written by the server: strings unquoted, numbers untouched
func rawText(token gjson.Result) string {
	switch token.Type {
	case gjson.String:
		return token.Str
	case gjson.Number:
		return token.Raw
	default:
		return token.String()
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (d *queryResultDecoder) IsInterfaceNil() bool {
	return d == nil
}
