package mutators

import (
	"math"
	"strconv"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const decimalPlaces = 6

// Numeric applies an arithmetic operator to a number. Integers stay
// integers: the result is rounded to the nearest whole number.
func Numeric(n *m.Num, op m.Operator, input string) (*m.Num, error) {
	amount, err := strconv.ParseFloat(trimmed(input), 64)
	if err != nil {
		return nil, reject(op, m.KindNum, "%q is not a number", input)
	}

	out, err := compute(n.Value, op, amount)
	if err != nil {
		return nil, err
	}

	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, reject(op, m.KindNum, "result is not a finite number")
	}

	if n.Integer {
		out = math.Round(out)
	} else {
		scale := math.Pow10(decimalPlaces)
		out = math.Round(out*scale) / scale
	}

	return &m.Num{Value: out, Integer: n.Integer}, nil
}

func compute(old float64, op m.Operator, amount float64) (float64, error) {
	switch op {
	case m.OpSet:
		return amount, nil
	case m.OpAdd:
		return old + amount, nil
	case m.OpSubtract:
		return old - amount, nil
	case m.OpMultiply:
		return old * amount, nil
	case m.OpIncreasePercent:
		return old * (1 + amount/100), nil
	case m.OpDecreasePercent:
		return old * (1 - amount/100), nil
	default:
		return 0, reject(op, m.KindNum, "unknown operator")
	}
}
