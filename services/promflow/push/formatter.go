package push

import (
	"net/url"
	"strings"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// FormatMetrics renders the metrics in the text exposition format, one newline terminated line per metric.
// Labels keep their declared order and names are not validated, the remote endpoint rejects invalid ones.
func FormatMetrics(metrics []common.PushMetric) string {
	var sb strings.Builder
	for _, m := range metrics {
		sb.WriteString(m.Name)
		writeLabels(&sb, m.Labels)
		sb.WriteByte(' ')
		sb.WriteString(m.Value)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func writeLabels(sb *strings.Builder, labels []common.Label) {
	if len(labels) == 0 {
		return
	}

	sb.WriteByte('{')
	for i, label := range labels {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(label.Name)
		sb.WriteString(`="`)
		sb.WriteString(label.Value)
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
}

// BuildTargetURL assembles <base>/metrics/job/<job>[/instance/<instance>] with escaped path segments
func BuildTargetURL(baseURL string, job string, instance string) string {
	target := strings.TrimRight(baseURL, "/") + "/metrics/job/" + url.PathEscape(job)
	if len(instance) > 0 {
		target += "/instance/" + url.PathEscape(instance)
	}

	return target
}
