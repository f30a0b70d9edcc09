package metrics

type MetricOption func(opts *MetricOpts)

type MetricOpts struct {
	Description string
}

// WithDescription sets the help text of the metric.
func WithDescription(description string) MetricOption {
	return func(opts *MetricOpts) {
		opts.Description = description
	}
}

// Apply folds the options into MetricOpts.
func Apply(opts []MetricOption) MetricOpts {
	var options MetricOpts
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
