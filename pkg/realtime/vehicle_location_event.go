package realtime

import (
	"fmt"
	"time"

	"github.com/travigo/bods-client/pkg/siri_vm"
)

const sourceTypeSiriVM = "siri-vm"

// VehicleLocationEvent is the queue payload for one vehicle activity.
type VehicleLocationEvent struct {
	LocalID    string
	SourceType string

	ProducerRef  string
	ResponseTime string
	Timeframe    string

	RecordedAt time.Time

	VehicleActivity siri_vm.VehicleActivity
}

func NewVehicleLocationEvent(activity siri_vm.VehicleActivity, delivery siri_vm.ServiceDelivery, currentTime time.Time) *VehicleLocationEvent {
	journey := activity.MonitoredVehicleJourney

	timeframe := currentTime.Format("2006-01-02")
	if journey.FramedVehicleJourneyRef != nil && journey.FramedVehicleJourneyRef.DataFrameRef != "" {
		timeframe = journey.FramedVehicleJourneyRef.DataFrameRef
	}

	return &VehicleLocationEvent{
		LocalID: fmt.Sprintf(
			"SIRI-VM:LOCALJOURNEYID:%s:%s:%s:%s",
			journey.OperatorRef,
			journey.LineRef,
			journey.OriginRef,
			journey.JourneyRef(),
		),
		SourceType:      sourceTypeSiriVM,
		ProducerRef:     delivery.ProducerRef,
		ResponseTime:    delivery.ResponseTimestamp,
		Timeframe:       timeframe,
		RecordedAt:      activity.RecordedAtTime,
		VehicleActivity: activity,
	}
}
