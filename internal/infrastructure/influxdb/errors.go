package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the mirror is switched off.
	ErrDisabled = errors.New("influxdb: mirror disabled")

	// ErrMisconfigured is returned by Connect when url, org or bucket is empty.
	ErrMisconfigured = errors.New("influxdb: incomplete mirror configuration")

	// ErrUnreachable is returned when the server does not answer its ping.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is returned by HealthCheck once the mirror is closed.
	ErrClosed = errors.New("influxdb: mirror closed")

	// ErrInvalidPoint is passed to the error callback for a reading or
	// status the mirror refuses to write, such as a NaN value or an empty MAC.
	ErrInvalidPoint = errors.New("influxdb: invalid point")

	// ErrWriteRejected wraps batch failures reported by the server.
	ErrWriteRejected = errors.New("influxdb: write rejected")
)
