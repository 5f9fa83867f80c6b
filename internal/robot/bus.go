package robot

import "context"

// Bus is the device bus consumed by the control routines. Implementations
// must tolerate the fixed call sequence Connect → WriteCalibration →
// Configure before the first Observation/SendAction, and Disconnect on
// every exit path.
type Bus interface {
	Connect() error
	WriteCalibration(cal Calibration) error
	Configure(ctx context.Context) error
	Observation(ctx context.Context) (map[string]float64, error)
	SendAction(ctx context.Context, action map[string]float64) error
	Disconnect() error
}
