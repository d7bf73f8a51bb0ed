package eta

import (
	"encoding/json"
	"math"
	"strconv"
)

const msPerHour = 3_600_000

// Rate is an hourly rate. NaN marks a rate measured over no time at all; it
// is encoded as the string "NaN" since JSON has no such number.
type Rate float64

// Valid reports whether r is a usable number.
func (r Rate) Valid() bool {
	return !math.IsNaN(float64(r))
}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte(`"NaN"`), nil
	}
	return []byte(strconv.FormatFloat(float64(r), 'f', -1, 64)), nil
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == `"NaN"` {
		*r = Rate(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Rate(f)
	return nil
}

func (r Rate) String() string {
	if !r.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(r), 'f', -1, 64)
}

// PerHour is round(delta / (deltaMs/3600000)). It is NaN when deltaMs <= 0
// and 0 when the division degenerates.
func PerHour(delta float64, deltaMs int64) Rate {
	return perHour(delta, deltaMs, 1)
}

// perHour2 is PerHour rounded to two decimals.
func perHour2(delta float64, deltaMs int64) Rate {
	return perHour(delta, deltaMs, 100)
}

func perHour(delta float64, deltaMs int64, scale float64) Rate {
	if deltaMs <= 0 {
		return Rate(math.NaN())
	}
	r := delta / (float64(deltaMs) / msPerHour)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return Rate(round(r*scale) / scale)
}

// SecondsTo returns round(remaining / (rate/3600)). ok is false unless both
// the rate and the remaining amount are positive.
func SecondsTo(remaining float64, rate Rate) (seconds int64, ok bool) {
	if !(rate > 0) || !(remaining > 0) {
		return 0, false
	}
	return int64(round(remaining / (float64(rate) / 3600))), true
}

// round rounds half up, matching the usual "round to nearest" of the game.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
