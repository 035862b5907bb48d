package query

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// Decoder flattens a query response body into metric records
type Decoder interface {
	Decode(body []byte) (common.ResultType, []common.MetricRecord, error)
	IsInterfaceNil() bool
}

// PolicySelector shapes decoded records according to a fetch type
type PolicySelector interface {
	Apply(ctx context.Context, records []common.MetricRecord, resultType common.ResultType, fetchType common.FetchType) (*common.QueryOutput, error)
	IsInterfaceNil() bool
}
