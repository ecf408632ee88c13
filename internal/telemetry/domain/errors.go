package domain

import "errors"

var (
	ErrMissingDeviceID    = errors.New("missing_device_id")
	ErrInvalidMeasurement = errors.New("invalid_measurement")
	ErrInvalidTimestamp   = errors.New("invalid_timestamp")
	ErrNoReadings         = errors.New("no_readings")
)
