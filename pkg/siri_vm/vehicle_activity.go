package siri_vm

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errNotDecimal = errors.New("not a decimal number")

type VehicleActivity struct {
	// RecordedAtTime always carries a UTC offset; timestamps without one are
	// rejected as invalid values.
	RecordedAtTime time.Time
	ItemIdentifier string
	ValidUntilTime DateTime

	MonitoredVehicleJourney MonitoredVehicleJourney
}

// MonitoredVehicleJourney holds the journey attributes of an activity. Apart
// from VehicleLocation every field is optional and left empty when absent.
type MonitoredVehicleJourney struct {
	LineRef           string
	DirectionRef      string
	PublishedLineName string

	FramedVehicleJourneyRef *FramedVehicleJourneyRef
	VehicleJourneyRef       string

	OperatorRef string

	OriginRef                string
	OriginName               string
	DestinationRef           string
	DestinationName          string
	OriginAimedDepartureTime string

	VehicleLocation VehicleLocation
	Bearing         *float64
	Occupancy       string

	BlockRef   string
	VehicleRef string
}

type FramedVehicleJourneyRef struct {
	DataFrameRef           string
	DatedVehicleJourneyRef string
}

type VehicleLocation struct {
	Longitude float64
	Latitude  float64
}

// JourneyRef prefers the dated journey reference over the plain one.
func (j MonitoredVehicleJourney) JourneyRef() string {
	if j.FramedVehicleJourneyRef != nil && j.FramedVehicleJourneyRef.DatedVehicleJourneyRef != "" {
		return j.FramedVehicleJourneyRef.DatedVehicleJourneyRef
	}
	return j.VehicleJourneyRef
}

// decodeVehicleActivity checks mandatory fields in a fixed order so the
// same document always reports the same error.
func decodeVehicleActivity(n node) (VehicleActivity, error) {
	var activity VehicleActivity

	recordedAtTime, err := n.mandatoryText(elementRecordedAtTime)
	if err != nil {
		return VehicleActivity{}, err
	}
	activity.RecordedAtTime, err = parseOffsetDateTime(recordedAtTime)
	if err != nil {
		return VehicleActivity{}, invalidValue(elementRecordedAtTime, n.childPath(elementRecordedAtTime), recordedAtTime, err)
	}

	activity.ItemIdentifier, err = n.mandatoryText(elementItemIdentifier)
	if err != nil {
		return VehicleActivity{}, err
	}

	validUntilTime, err := n.mandatoryText(elementValidUntilTime)
	if err != nil {
		return VehicleActivity{}, err
	}
	activity.ValidUntilTime, err = parseDateTime(validUntilTime)
	if err != nil {
		return VehicleActivity{}, invalidValue(elementValidUntilTime, n.childPath(elementValidUntilTime), validUntilTime, err)
	}

	journeyNode, err := n.mandatoryChild(elementMonitoredVehicleJourney)
	if err != nil {
		return VehicleActivity{}, err
	}
	activity.MonitoredVehicleJourney, err = decodeMonitoredVehicleJourney(journeyNode)
	if err != nil {
		return VehicleActivity{}, err
	}

	return activity, nil
}

func decodeMonitoredVehicleJourney(n node) (MonitoredVehicleJourney, error) {
	journey := MonitoredVehicleJourney{
		LineRef:                  n.optionalText(elementLineRef),
		DirectionRef:             n.optionalText(elementDirectionRef),
		PublishedLineName:        n.optionalText(elementPublishedLineName),
		VehicleJourneyRef:        n.optionalText(elementVehicleJourneyRef),
		OperatorRef:              n.optionalText(elementOperatorRef),
		OriginRef:                n.optionalText(elementOriginRef),
		OriginName:               n.optionalText(elementOriginName),
		DestinationRef:           n.optionalText(elementDestinationRef),
		DestinationName:          n.optionalText(elementDestinationName),
		OriginAimedDepartureTime: n.optionalText(elementOriginAimedDepartureTime),
		Occupancy:                n.optionalText(elementOccupancy),
		BlockRef:                 n.optionalText(elementBlockRef),
		VehicleRef:               n.optionalText(elementVehicleRef),
	}

	if framedNode, ok := n.optionalChild(elementFramedVehicleJourneyRef); ok {
		journey.FramedVehicleJourneyRef = &FramedVehicleJourneyRef{
			DataFrameRef:           framedNode.optionalText(elementDataFrameRef),
			DatedVehicleJourneyRef: framedNode.optionalText(elementDatedVehicleJourneyRef),
		}
	}

	locationNode, err := n.mandatoryChild(elementVehicleLocation)
	if err != nil {
		return MonitoredVehicleJourney{}, err
	}
	journey.VehicleLocation, err = decodeVehicleLocation(locationNode)
	if err != nil {
		return MonitoredVehicleJourney{}, err
	}

	if bearing, ok := n.lookupText(elementBearing); ok {
		value, err := parseDecimal(bearing)
		if err != nil {
			return MonitoredVehicleJourney{}, invalidValue(elementBearing, n.childPath(elementBearing), bearing, err)
		}
		journey.Bearing = &value
	}

	return journey, nil
}

func decodeVehicleLocation(n node) (VehicleLocation, error) {
	longitude, err := mandatoryFloat(n, elementLongitude)
	if err != nil {
		return VehicleLocation{}, err
	}

	latitude, err := mandatoryFloat(n, elementLatitude)
	if err != nil {
		return VehicleLocation{}, err
	}

	return VehicleLocation{Longitude: longitude, Latitude: latitude}, nil
}

func mandatoryFloat(n node, local string) (float64, error) {
	text, err := n.mandatoryText(local)
	if err != nil {
		return 0, err
	}

	value, err := parseDecimal(text)
	if err != nil {
		return 0, invalidValue(local, n.childPath(local), text, err)
	}

	return value, nil
}

// parseDecimal parses a double without the hex and digit separator forms
// strconv allows. NaN and infinities are kept.
func parseDecimal(text string) (float64, error) {
	unsigned := strings.ToLower(strings.TrimLeft(text, "+-"))
	if strings.HasPrefix(unsigned, "0x") || strings.Contains(unsigned, "_") {
		return 0, errNotDecimal
	}

	return strconv.ParseFloat(text, 64)
}
