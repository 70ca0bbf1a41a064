package stats

// Number is any value summarised by this package
type Number interface {
	~int | ~int64 | ~float64
}

// Sum calculates the sum of values
func Sum[T Number](values []T) T {
	var sum T
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean calculates the arithmetic mean of values
func Mean[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(Sum(values)) / float64(len(values))
}

// Max finds the maximum value, or zero for no values
func Max[T Number](values []T) T {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Percent returns part as a percentage of whole, capped at 100
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	p := part / whole * 100
	if p > 100 {
		return 100
	}
	return p
}
