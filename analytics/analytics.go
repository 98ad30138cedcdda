package analytics

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"

// Outcome is the final state of one handled message.
type Outcome struct {
	TenantId   string
	MessageId  string
	ActionType string
	Result     string
	RetryCount int
	Reason     string
}

type DataCollector interface {
	RecordOutcome(outcome Outcome)
	Close() error
}

func NewDataCollector(config DataCollectorConfig) (DataCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		if config.FileName == "" {
			return noopCollector{}, nil
		}
		return NewLogFileDataCollector(config.FileName)
	}
	return noopCollector{}, nil
}

type noopCollector struct{}

func (noopCollector) RecordOutcome(Outcome) {}

func (noopCollector) Close() error { return nil }
