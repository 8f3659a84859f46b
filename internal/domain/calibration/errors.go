package calibration

import "errors"

// Sentinel kinds for calibration errors. All of these are fatal at startup;
// calibration itself never fails at request time.
var (
	ErrLoadConfig    = errors.New("load calibration config failed")
	ErrInvalidParams = errors.New("invalid calibration parameters")
	ErrUnknownMethod = errors.New("unknown calibration method")
)
