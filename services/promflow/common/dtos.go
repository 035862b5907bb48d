package common

import "encoding/json"

// MetricRecord is one decoded sample. Value keeps the server's textual representation ("1", "NaN", "+Inf"...)
type MetricRecord struct {
	Labels    map[string]string `json:"labels"`
	Timestamp float64           `json:"timestamp"`
	Value     string            `json:"value"`
}

// QueryOutput is the shaped result of a query invocation. Exactly one of Metrics, Metric and URI is populated,
// depending on the fetch type, except for NONE where none of them is. A non-nil empty Metrics (FETCH without
// results) is rendered as an empty list.
type QueryOutput struct {
	Size       int            `json:"size"`
	Total      int            `json:"total"`
	ResultType string         `json:"resultType"`
	Metrics    []MetricRecord `json:"metrics,omitempty"`
	Metric     *MetricRecord  `json:"metric,omitempty"`
	URI        string         `json:"uri,omitempty"`
}

// MarshalJSON omits metrics only when the slice is nil
func (qo QueryOutput) MarshalJSON() ([]byte, error) {
	type plainOutput QueryOutput
	aux := struct {
		plainOutput
		Metrics *[]MetricRecord `json:"metrics,omitempty"`
	}{
		plainOutput: plainOutput(qo),
	}
	if qo.Metrics != nil {
		aux.Metrics = &qo.Metrics
	}

	return json.Marshal(aux)
}

// Label is a single name/value pair. Push labels are kept as a slice so the rendering order is the declared one
type Label struct {
	Name  string `json:"name" toml:"Name"`
	Value string `json:"value" toml:"Value"`
}

// PushMetric is a user supplied metric to be pushed to a Pushgateway
type PushMetric struct {
	Name   string `json:"name" toml:"Name"`
	Value  string `json:"value" toml:"Value"`
	Labels Labels `json:"labels,omitempty" toml:"Labels"`
}

// PushOutput is the result of a push invocation
type PushOutput struct {
	Status string `json:"status"`
	Code   int    `json:"code"`
}

// TriggerEvent is emitted when a trigger tick found at least one result
type TriggerEvent struct {
	ID        string      `json:"id"`
	TriggerID string      `json:"triggerId"`
	FiredAt   int64       `json:"firedAt"`
	Output    QueryOutput `json:"output"`
}

// QueryRequest is an ad-hoc query invocation. Time accepts "now" and relative forms, anything else is sent as it is
type QueryRequest struct {
	Query     string `json:"query"`
	Time      string `json:"time,omitempty"`
	FetchType string `json:"fetchType,omitempty"`
}

// PushRequest is an ad-hoc push invocation
type PushRequest struct {
	Job      string       `json:"job"`
	Instance string       `json:"instance,omitempty"`
	Metrics  []PushMetric `json:"metrics"`
}
