package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

var errNilResultStorer = errors.New("nil result storer, STORE fetch type is not available")

type policySelector struct {
	storer ResultStorer
}

// NewPolicySelector creates a selector. The storer is optional, without it the STORE fetch type errors.
func NewPolicySelector(storer ResultStorer) *policySelector {
	return &policySelector{
		storer: storer,
	}
}

// Apply shapes the decoded records according to the fetch type. Total always reports the decoded count.
func (ps *policySelector) Apply(
	ctx context.Context,
	records []common.MetricRecord,
	resultType common.ResultType,
	fetchType common.FetchType,
) (*common.QueryOutput, error) {
	output := &common.QueryOutput{
		Total:      len(records),
		ResultType: resultType.String(),
	}

	switch fetchType {
	case common.FetchAll:
		output.Metrics = records
		if output.Metrics == nil {
			output.Metrics = make([]common.MetricRecord, 0)
		}
		output.Size = len(records)
	case common.FetchOne:
		if len(records) > 0 {
			first := records[0]
			output.Metric = &first
			output.Size = 1
		}
	case common.FetchStore:
		if check.IfNil(ps.storer) {
			return nil, errNilResultStorer
		}

		uri, err := ps.storer.Store(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("failed to store query results: %w", err)
		}
		output.URI = uri
		output.Size = len(records)
	case common.FetchNone:
		output.Size = len(records)
	default:
		return nil, fmt.Errorf("unknown fetch type: %s", fetchType)
	}

	return output, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ps *policySelector) IsInterfaceNil() bool {
	return ps == nil
}
