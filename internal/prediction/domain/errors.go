package domain

import "errors"

var (
	ErrMissingDeviceID = errors.New("missing_device_id")
	ErrInvalidWaterMM  = errors.New("invalid_water_mm")
	ErrInvalidPumpTime = errors.New("invalid_pump_time")
	ErrNoPredictions   = errors.New("no_predictions")

	// ErrNoActivePrediction is the expected empty outcome of the delivery
	// protocol, not a fault: the device polled (or acknowledged) while no
	// pending prediction existed for it.
	ErrNoActivePrediction = errors.New("no_active_prediction")
)
