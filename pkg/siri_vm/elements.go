package siri_vm

import "encoding/xml"

// Namespace is the XML namespace every SIRI-VM element is qualified with.
const Namespace = "http://www.siri.org.uk/siri"

// Element names read from a vehicle monitoring document.
const (
	elementServiceDelivery           = "ServiceDelivery"
	elementVehicleMonitoringDelivery = "VehicleMonitoringDelivery"
	elementVehicleActivity           = "VehicleActivity"
	elementResponseTimestamp         = "ResponseTimestamp"
	elementProducerRef               = "ProducerRef"
	elementRequestMessageRef         = "RequestMessageRef"
	elementValidUntil                = "ValidUntil"
	elementShortestPossibleCycle     = "ShortestPossibleCycle"

	elementRecordedAtTime          = "RecordedAtTime"
	elementItemIdentifier          = "ItemIdentifier"
	elementValidUntilTime          = "ValidUntilTime"
	elementMonitoredVehicleJourney = "MonitoredVehicleJourney"

	elementLineRef                  = "LineRef"
	elementDirectionRef             = "DirectionRef"
	elementPublishedLineName        = "PublishedLineName"
	elementFramedVehicleJourneyRef  = "FramedVehicleJourneyRef"
	elementDataFrameRef             = "DataFrameRef"
	elementDatedVehicleJourneyRef   = "DatedVehicleJourneyRef"
	elementVehicleJourneyRef        = "VehicleJourneyRef"
	elementOperatorRef              = "OperatorRef"
	elementOriginRef                = "OriginRef"
	elementOriginName               = "OriginName"
	elementDestinationRef           = "DestinationRef"
	elementDestinationName          = "DestinationName"
	elementOriginAimedDepartureTime = "OriginAimedDepartureTime"
	elementVehicleLocation          = "VehicleLocation"
	elementLongitude                = "Longitude"
	elementLatitude                 = "Latitude"
	elementBearing                  = "Bearing"
	elementOccupancy                = "Occupancy"
	elementBlockRef                 = "BlockRef"
	elementVehicleRef               = "VehicleRef"
)

func qualifiedName(local string) xml.Name {
	return xml.Name{Space: Namespace, Local: local}
}
