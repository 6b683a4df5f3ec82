package videoanalyst

import (
	"encoding/json"
	"errors"

	"video-analyst/internal/models"
	"video-analyst/shared/ai"
)

// Outcome is the result of one orchestrator run: exactly one of Result and
// Err is set.
type Outcome struct {
	Result *models.AnalysisResult
	Err    error
}

func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// Kind returns the failure kind, or "" on success.
func (o Outcome) Kind() ai.Kind {
	if o.Err == nil {
		return ""
	}
	if kind := ai.KindOf(o.Err); kind != "" {
		return kind
	}
	return ai.KindNetwork
}

// ErrorMessage is the root-cause text of a failed run.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	var aiErr *ai.Error
	if errors.As(o.Err, &aiErr) {
		return aiErr.Message()
	}
	return o.Err.Error()
}

// Record returns the mapping handed back to callers: the result fields on
// success, or a single "error" key on failure.
func (o Outcome) Record() map[string]string {
	if o.OK() {
		return o.Result.Record()
	}
	return map[string]string{"error": o.ErrorMessage()}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.OK() {
		return json.Marshal(o.Result)
	}
	return json.Marshal(o.Record())
}
