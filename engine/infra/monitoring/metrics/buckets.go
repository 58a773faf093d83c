package metrics

// HTTPDurationBuckets defines latency buckets for HTTP request duration metrics.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// StageDurationBuckets covers pipeline stages, which are dominated by model calls.
var StageDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// ResultCountBuckets defines buckets for the number of matches per search.
var ResultCountBuckets = []float64{0, 1, 2, 3, 5, 10, 25}
