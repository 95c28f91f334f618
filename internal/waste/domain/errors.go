package waste

import "errors"

var (
	// ErrDuplicateBinID reports a bin_id uniqueness violation on insert.
	ErrDuplicateBinID = errors.New("waste: duplicate bin id")
	// ErrDuplicateSensorID reports a sensor_id uniqueness violation on insert.
	ErrDuplicateSensorID = errors.New("waste: duplicate sensor id")
)
