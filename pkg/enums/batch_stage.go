package enums

import "fmt"

// BatchStage is a processing stage in the leather traceability chain.
type BatchStage string

const (
	BatchStageRaw       BatchStage = "raw"
	BatchStageWetBlue   BatchStage = "wet_blue"
	BatchStageRetanning BatchStage = "retanning"
	BatchStageFinished  BatchStage = "finished"
)

var validBatchStages = []BatchStage{
	BatchStageRaw,
	BatchStageWetBlue,
	BatchStageRetanning,
	BatchStageFinished,
}

// String implements fmt.Stringer.
func (b BatchStage) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BatchStage.
func (b BatchStage) IsValid() bool {
	for _, candidate := range validBatchStages {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBatchStage converts raw input into a BatchStage.
func ParseBatchStage(value string) (BatchStage, error) {
	for _, candidate := range validBatchStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid batch stage %q", value)
}

// Previous returns the stage a batch must descend from. Raw batches have no parent stage.
func (b BatchStage) Previous() (BatchStage, bool) {
	for i, candidate := range validBatchStages {
		if candidate == b {
			if i == 0 {
				return "", false
			}
			return validBatchStages[i-1], true
		}
	}
	return "", false
}

// Next returns the stage that follows b, if any.
func (b BatchStage) Next() (BatchStage, bool) {
	for i, candidate := range validBatchStages {
		if candidate == b && i+1 < len(validBatchStages) {
			return validBatchStages[i+1], true
		}
	}
	return "", false
}
