package config

import (
	"fmt"
	"time"
)

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func check[T any](ac *AnomalyCollector, field, reason string, actual *T, fallback T, invalid bool) {
	if !invalid {
		return
	}

	ac.add(field, reason, *actual, fallback)
	*actual = fallback
}

// CheckNotNegative checks that the value is not negative.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotNegative[T ordered](ac *AnomalyCollector, field string, actual *T, fallback T) {
	check(ac, field, "cannot be negative", actual, fallback, *actual < 0)
}

// CheckNotZero checks that the value is not zero.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotZero[T ordered](ac *AnomalyCollector, field string, actual *T, fallback T) {
	check(ac, field, "cannot be zero", actual, fallback, *actual == 0)
}

// CheckPositive checks that the value is greater than zero.
// If it is not, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckPositive[T ordered](ac *AnomalyCollector, field string, actual *T, fallback T) {
	check(ac, field, "must be greater than zero", actual, fallback, *actual <= 0)
}

// CheckNotGreater checks that the value is not greater than the limit.
// If it is, an anomaly is added to the anomaly collector and the value is set to the limit.
func CheckNotGreater[T ordered](ac *AnomalyCollector, field string, actual *T, limit T) {
	check(ac, field, fmt.Sprintf("cannot be greater than %v", limit), actual, limit, *actual > limit)
}

// CheckNotLowerThan checks that the value is not lower than the value of another field.
// If it is, an anomaly is added to the anomaly collector and the value is set to the target.
func CheckNotLowerThan[T ordered](ac *AnomalyCollector, field, targetField string, actual *T, target T) {
	check(ac, field, fmt.Sprintf("cannot be lower than %q", targetField), actual, target, *actual < target)
}

// CheckPositiveDuration checks that the duration is greater than zero.
// If it is not, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckPositiveDuration(ac *AnomalyCollector, field string, actual *time.Duration, fallback time.Duration) {
	CheckPositive(ac, field, actual, fallback)
}

// CheckNotEmpty checks that the value is not empty.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckNotEmpty(ac *AnomalyCollector, field string, actual *string, fallback string) {
	check(ac, field, "cannot be empty", actual, fallback, *actual == "")
}

// CheckLen checks that the slice is not empty.
// If it is, an anomaly is added to the anomaly collector and the value is set to the fallback.
func CheckLen[T any](ac *AnomalyCollector, field string, actual *[]T, fallback []T) {
	check(ac, field, "cannot be empty", actual, fallback, len(*actual) == 0)
}
