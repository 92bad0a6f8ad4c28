package domain

type (
	LivenessResponseStatus string

	ReadinessResponseStatus string
)

const (
	LivenessResponseStatusAlive LivenessResponseStatus = "alive"
)

const (
	ReadinessResponseStatusReady    ReadinessResponseStatus = "ready"
	ReadinessResponseStatusNotReady ReadinessResponseStatus = "not_ready"
)

type (
	// LivenessResult is reported while the process runs.
	LivenessResult struct {
		Status  LivenessResponseStatus `json:"status"`
		Version string                 `json:"version"`
	}

	// ReadinessResult describes the consumer as seen by the ops endpoints.
	ReadinessResult struct {
		Status      ReadinessResponseStatus `json:"status"`
		State       string                  `json:"state"`
		Queue       string                  `json:"queue"`
		ConsumerTag string                  `json:"consumer_tag,omitempty"`
	}
)
