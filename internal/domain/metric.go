package domain

import "strings"

// Metric is the single similarity convention used by an index.
type Metric int

const (
	// MetricInnerProduct scores by dot product; higher is closer. Vectors
	// must be unit-normalized for this to equal cosine similarity.
	MetricInnerProduct Metric = iota
	// MetricL2 scores by squared Euclidean distance; lower is closer.
	MetricL2
	// MetricCosine scores by cosine distance (1 - cosine similarity); lower is closer.
	MetricCosine
)

// ParseMetric maps a config name to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ip", "inner_product", "dot", "":
		return MetricInnerProduct, nil
	case "l2", "euclidean":
		return MetricL2, nil
	case "cosine":
		return MetricCosine, nil
	}
	return 0, ErrUnknownMetric
}

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "ip"
	case MetricL2:
		return "l2"
	case MetricCosine:
		return "cosine"
	}
	return "unknown"
}

// HigherIsBetter reports the ordering direction of scores under m.
func (m Metric) HigherIsBetter() bool { return m == MetricInnerProduct }

// Better reports whether score a ranks ahead of score b.
func (m Metric) Better(a, b float64) bool {
	if m.HigherIsBetter() {
		return a > b
	}
	return a < b
}

// RequiresNormalized reports whether embeddings must be unit length for m.
func (m Metric) RequiresNormalized() bool { return m == MetricInnerProduct }
