package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// FeetechConfig configures a serial bus connection to one arm.
type FeetechConfig struct {
	Port string
	// Torque enables servo torque during Configure. Followers hold
	// torque; leaders stay passive so the operator can move them.
	Torque bool
}

// FeetechBus drives an SO-101 arm over the Feetech STS serial protocol.
type FeetechBus struct {
	cfg   FeetechConfig
	bus   *feetech.Bus
	group *feetech.ServoGroup
	cal   Calibration
}

// NewFeetechBus creates an unconnected bus for the given serial port.
func NewFeetechBus(cfg FeetechConfig) *FeetechBus {
	return &FeetechBus{cfg: cfg}
}

// Connect opens the serial port.
func (b *FeetechBus) Connect() error {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     b.cfg.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return fmt.Errorf("open bus %s: %w", b.cfg.Port, err)
	}
	b.bus = bus
	return nil
}

// WriteCalibration installs the calibration used to normalize positions.
// The SO-101 servos are calibrated host-side; nothing is written to motor
// memory.
func (b *FeetechBus) WriteCalibration(cal Calibration) error {
	if b.bus == nil {
		return fmt.Errorf("bus %s not connected", b.cfg.Port)
	}
	b.cal = cal
	b.group = feetech.NewServoGroupByIDs(b.bus, cal.MotorIDs()...)
	return nil
}

// Configure sets the torque state for all servos.
func (b *FeetechBus) Configure(ctx context.Context) error {
	if b.group == nil {
		return fmt.Errorf("bus %s has no calibration", b.cfg.Port)
	}
	if b.cfg.Torque {
		if err := b.group.EnableAll(ctx); err != nil {
			return fmt.Errorf("enable torque: %w", err)
		}
		return nil
	}
	if err := b.group.DisableAll(ctx); err != nil {
		return fmt.Errorf("disable torque: %w", err)
	}
	return nil
}

// Observation reads current positions from all motors. Keys are
// "<motor>.pos", values normalized to [-100, 100].
func (b *FeetechBus) Observation(ctx context.Context) (map[string]float64, error) {
	rawPositions, err := b.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	obs := make(map[string]float64, len(rawPositions))
	for id, raw := range rawPositions {
		name, cal, ok := b.cal.ByID(id)
		if !ok {
			continue
		}
		obs[ObservationKey(name)] = cal.Normalize(raw)
	}
	return obs, nil
}

// SendAction writes target positions to all motors. Keys are
// "<motor>.pos", values normalized to [-100, 100].
func (b *FeetechBus) SendAction(ctx context.Context, action map[string]float64) error {
	rawPositions := make(feetech.PositionMap, len(action))
	for _, name := range AllMotors() {
		norm, ok := action[ObservationKey(name)]
		if !ok {
			continue
		}
		cal, ok := b.cal[name]
		if !ok {
			continue
		}
		rawPositions[cal.ID] = cal.Denormalize(norm)
	}

	if err := b.group.SetPositions(ctx, rawPositions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// Disconnect releases torque when held and closes the serial port.
func (b *FeetechBus) Disconnect() error {
	if b.bus == nil {
		return nil
	}
	if b.cfg.Torque && b.group != nil {
		// Best effort: leave the arm limp rather than fighting the operator.
		_ = b.group.DisableAll(context.Background())
	}
	err := b.bus.Close()
	b.bus = nil
	b.group = nil
	return err
}
