package bods

import (
	"strconv"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/travigo/bods-client/pkg/siri_vm"
)

// DatasetRecord is the flat form of a timetable or fares dataset used for CSV
// output.
type DatasetRecord struct {
	ID           int    `csv:"id" json:"id"`
	Name         string `csv:"name" json:"name"`
	OperatorName string `csv:"operator_name" json:"operatorName"`
	NOCs         string `csv:"noc" json:"noc"`
	Status       string `csv:"status" json:"status"`
	Modified     string `csv:"modified" json:"modified"`
	URL          string `csv:"url" json:"url"`
}

func newDatasetRecord(dataset Dataset) DatasetRecord {
	return DatasetRecord{
		ID:           dataset.ID,
		Name:         dataset.Name,
		OperatorName: dataset.OperatorName,
		NOCs:         strings.Join(dataset.NOCs, ","),
		Status:       dataset.Status,
		Modified:     dataset.Modified.Format(time.RFC3339),
		URL:          dataset.URL,
	}
}

func TimetableRecords(timetables []*Timetable) []DatasetRecord {
	records := make([]DatasetRecord, 0, len(timetables))
	for _, timetable := range timetables {
		records = append(records, newDatasetRecord(timetable.Dataset))
	}

	return records
}

func FareRecords(fares []*Fare) []DatasetRecord {
	records := make([]DatasetRecord, 0, len(fares))
	for _, fare := range fares {
		records = append(records, newDatasetRecord(fare.Dataset))
	}

	return records
}

// VehicleRecord is one vehicle position from either real time feed.
type VehicleRecord struct {
	ID          string  `csv:"id" json:"id"`
	RecordedAt  string  `csv:"recorded_at" json:"recordedAt"`
	ValidUntil  string  `csv:"valid_until" json:"validUntil"`
	OperatorRef string  `csv:"operator_ref" json:"operatorRef"`
	LineRef     string  `csv:"line_ref" json:"lineRef"`
	JourneyRef  string  `csv:"journey_ref" json:"journeyRef"`
	VehicleRef  string  `csv:"vehicle_ref" json:"vehicleRef"`
	Longitude   float64 `csv:"longitude" json:"longitude"`
	Latitude    float64 `csv:"latitude" json:"latitude"`
	Bearing     string  `csv:"bearing" json:"bearing"`
	Occupancy   string  `csv:"occupancy" json:"occupancy"`
}

func SiriRecords(siri *siri_vm.Siri) []VehicleRecord {
	activities := siri.VehicleActivities()
	records := make([]VehicleRecord, 0, len(activities))

	for _, activity := range activities {
		journey := activity.MonitoredVehicleJourney

		record := VehicleRecord{
			ID:          activity.ItemIdentifier,
			RecordedAt:  activity.RecordedAtTime.Format(time.RFC3339Nano),
			ValidUntil:  activity.ValidUntilTime.String(),
			OperatorRef: journey.OperatorRef,
			LineRef:     journey.LineRef,
			JourneyRef:  journey.JourneyRef(),
			VehicleRef:  journey.VehicleRef,
			Longitude:   journey.VehicleLocation.Longitude,
			Latitude:    journey.VehicleLocation.Latitude,
			Occupancy:   journey.Occupancy,
		}
		if journey.Bearing != nil {
			record.Bearing = strconv.FormatFloat(*journey.Bearing, 'f', -1, 64)
		}

		records = append(records, record)
	}

	return records
}

// GTFSRTRecords flattens the vehicle position entities of a feed. Entities
// without a vehicle position are skipped.
func GTFSRTRecords(feed *gtfs.FeedMessage) []VehicleRecord {
	var records []VehicleRecord

	for _, entity := range feed.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil {
			continue
		}

		record := VehicleRecord{
			ID:         entity.GetId(),
			LineRef:    vehicle.GetTrip().GetRouteId(),
			JourneyRef: vehicle.GetTrip().GetTripId(),
			VehicleRef: vehicle.GetVehicle().GetId(),
			Longitude:  float64(vehicle.GetPosition().GetLongitude()),
			Latitude:   float64(vehicle.GetPosition().GetLatitude()),
		}
		if vehicle.Timestamp != nil {
			record.RecordedAt = time.Unix(int64(vehicle.GetTimestamp()), 0).UTC().Format(time.RFC3339)
		}
		if vehicle.GetPosition().Bearing != nil {
			record.Bearing = strconv.FormatFloat(float64(vehicle.GetPosition().GetBearing()), 'f', -1, 32)
		}
		if vehicle.OccupancyStatus != nil {
			record.Occupancy = vehicle.GetOccupancyStatus().String()
		}

		records = append(records, record)
	}

	return records
}
