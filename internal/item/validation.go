package item

import "fmt"

const maxNameLength = 100

var validKinds map[Kind]struct{}

func init() {
	validKinds = make(map[Kind]struct{}, len(AllKinds()))
	for _, k := range AllKinds() {
		validKinds[k] = struct{}{}
	}
}

// Validate checks an item record for structural problems. Missing
// topics are not an error here: an item without a state topic simply
// has no inbound binding, which surfaces as a degraded driver status
// rather than a rejected configuration.
func Validate(i *Item) error {
	if i == nil {
		return ErrInvalidItem
	}
	if i.Name == "" || len(i.Name) > maxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidName, i.Name)
	}
	if _, ok := validKinds[i.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, i.Kind)
	}
	if i.QoS > 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, i.QoS)
	}
	switch i.Optimistic {
	case "", OptimisticAuto, OptimisticOn, OptimisticOff:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOptimistic, i.Optimistic)
	}
	if i.Kind == KindSensor {
		switch i.SensorType {
		case SensorTemperature, SensorHumidity:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSensorType, i.SensorType)
		}
		switch i.Unit {
		case "", UnitCelsius, UnitFahrenheit:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidUnit, i.Unit)
		}
	}
	return nil
}
