// Package envelope renders computation outcomes into the public response shape.
package envelope

import (
	"time"

	"github.com/bwmarrin/snowflake"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
)

// State is the envelope status field.
type State string

const (
	StateOK      State = "ok"
	StatePartial State = "partial"
	StateError   State = "error"
)

const (
	messageOK      = "calculation succeeded"
	messagePartial = "partial success"
	messageFailed  = "calculation failed"

	unknownFailure = "unknown calculation failure"
)

type Envelope struct {
	Status    State          `json:"status"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FromOutcome maps every outcome onto exactly one envelope state. Unknown
// statuses are reported as errors.
func FromOutcome(out chartdomain.Outcome, now time.Time) Envelope {
	env := Envelope{Timestamp: now.Format(time.RFC3339)}

	switch out.Status {
	case chartdomain.StatusOK:
		env.Status = StateOK
		env.Message = messageOK
		env.Result = result(out)
	case chartdomain.StatusPartial:
		detail := out.Detail
		if detail == "" {
			detail = "horoscope unavailable"
		}
		env.Status = StatePartial
		env.Message = messagePartial + ": " + detail
		env.Result = result(out)
		env.Error = detail
	default:
		detail := failure(out)
		env.Status = StateError
		env.Message = messageFailed + ": " + detail
		env.Error = detail
	}
	return env
}

// Error builds an error envelope for failures raised outside a computation.
func Error(err error, now time.Time) Envelope {
	return FromOutcome(chartdomain.Failed(err), now)
}

func result(out chartdomain.Outcome) map[string]any {
	if !out.Complete {
		res := make(map[string]any, len(out.Natal)+1)
		for k, v := range out.Natal {
			res[k] = v
		}
		addID(res, "record_id", out.ChartID)
		return res
	}

	res := map[string]any{
		"natal_chart": out.Natal,
		"horoscope":   out.Horoscope,
	}
	addID(res, "natal_record_id", out.ChartID)
	addID(res, "horoscope_record_id", out.HoroscopeID)
	return res
}

func failure(out chartdomain.Outcome) string {
	switch {
	case out.Err != nil:
		return out.Err.Error()
	case out.Detail != "":
		return out.Detail
	default:
		return unknownFailure
	}
}

func addID(res map[string]any, key string, id snowflake.ID) {
	if id != 0 {
		res[key] = id.String()
	}
}
