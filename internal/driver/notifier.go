package driver

import "github.com/nerrad567/itembridge/internal/item"

// FanoutNotifier delivers every host-facing notification to each of
// its targets in order. A nil target is skipped.
type FanoutNotifier []item.Notifier

func (f FanoutNotifier) StateChanged(itemID int, state bool) {
	for _, n := range f {
		if n != nil {
			n.StateChanged(itemID, state)
		}
	}
}

func (f FanoutNotifier) EventFired(itemID int, token string) {
	for _, n := range f {
		if n != nil {
			n.EventFired(itemID, token)
		}
	}
}

func (f FanoutNotifier) ObservableChanged(itemID int, value string) {
	for _, n := range f {
		if n != nil {
			n.ObservableChanged(itemID, value)
		}
	}
}

func (f FanoutNotifier) SensorReading(itemID int, value float64, unit string) {
	for _, n := range f {
		if n != nil {
			n.SensorReading(itemID, value, unit)
		}
	}
}

// LogNotifier writes host-facing notifications to the structured log.
// It stands in for host platform wiring in deployments where the only
// consumer of item changes is the operator.
type LogNotifier struct {
	Logger Logger
}

func (l LogNotifier) StateChanged(itemID int, state bool) {
	l.Logger.Info("item state changed", "id", itemID, "state", state)
}

func (l LogNotifier) EventFired(itemID int, token string) {
	l.Logger.Info("item event fired", "id", itemID, "token", token)
}

func (l LogNotifier) ObservableChanged(itemID int, value string) {
	l.Logger.Info("item value changed", "id", itemID, "value", value)
}

func (l LogNotifier) SensorReading(itemID int, value float64, unit string) {
	l.Logger.Info("item reading changed", "id", itemID, "value", value, "unit", unit)
}
