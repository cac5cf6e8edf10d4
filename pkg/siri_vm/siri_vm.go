package siri_vm

import (
	"time"

	iso8601 "github.com/senseyeio/duration"
)

// Siri is a decoded SIRI-VM document. Values are only ever produced by a
// successful Parse.
type Siri struct {
	ServiceDelivery ServiceDelivery
}

type ServiceDelivery struct {
	ResponseTimestamp string
	ProducerRef       string

	VehicleMonitoringDelivery VehicleMonitoringDelivery
}

type VehicleMonitoringDelivery struct {
	ResponseTimestamp     string
	RequestMessageRef     string
	ValidUntil            string
	ShortestPossibleCycle time.Duration

	VehicleActivities []VehicleActivity
}

// VehicleActivities is a shortcut to the activities in document order.
func (s *Siri) VehicleActivities() []VehicleActivity {
	return s.ServiceDelivery.VehicleMonitoringDelivery.VehicleActivities
}

// Parse decodes a SIRI-VM document. Any missing mandatory element or
// unconvertible value aborts the whole parse; no partial document is returned.
func Parse(data []byte) (*Siri, error) {
	root, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	serviceDeliveryNode, err := root.mandatoryChild(elementServiceDelivery)
	if err != nil {
		return nil, err
	}

	serviceDelivery, err := decodeServiceDelivery(serviceDeliveryNode)
	if err != nil {
		return nil, err
	}

	return &Siri{ServiceDelivery: serviceDelivery}, nil
}

func decodeServiceDelivery(n node) (ServiceDelivery, error) {
	deliveryNode, err := n.mandatoryChild(elementVehicleMonitoringDelivery)
	if err != nil {
		return ServiceDelivery{}, err
	}

	delivery, err := decodeVehicleMonitoringDelivery(deliveryNode)
	if err != nil {
		return ServiceDelivery{}, err
	}

	return ServiceDelivery{
		ResponseTimestamp:         n.optionalText(elementResponseTimestamp),
		ProducerRef:               n.optionalText(elementProducerRef),
		VehicleMonitoringDelivery: delivery,
	}, nil
}

func decodeVehicleMonitoringDelivery(n node) (VehicleMonitoringDelivery, error) {
	delivery := VehicleMonitoringDelivery{
		ResponseTimestamp: n.optionalText(elementResponseTimestamp),
		RequestMessageRef: n.optionalText(elementRequestMessageRef),
		ValidUntil:        n.optionalText(elementValidUntil),
	}

	if cycle, ok := n.lookupText(elementShortestPossibleCycle); ok {
		duration, err := parseDuration(cycle)
		if err != nil {
			return VehicleMonitoringDelivery{}, invalidValue(elementShortestPossibleCycle, n.childPath(elementShortestPossibleCycle), cycle, err)
		}
		delivery.ShortestPossibleCycle = duration
	}

	activityNodes := n.children(elementVehicleActivity)
	delivery.VehicleActivities = make([]VehicleActivity, 0, len(activityNodes))

	for _, activityNode := range activityNodes {
		activity, err := decodeVehicleActivity(activityNode)
		if err != nil {
			return VehicleMonitoringDelivery{}, err
		}

		delivery.VehicleActivities = append(delivery.VehicleActivities, activity)
	}

	return delivery, nil
}

func parseDuration(value string) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, err
	}

	reference := time.Unix(0, 0).UTC()
	return duration.Shift(reference).Sub(reference), nil
}
