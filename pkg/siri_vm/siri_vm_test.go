package siri_vm

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return data
}

func requireParsingError(t *testing.T, err error, reason error, element string) *ParsingError {
	t.Helper()

	require.Error(t, err)
	assert.ErrorIs(t, err, reason)

	var parsingError *ParsingError
	require.True(t, errors.As(err, &parsingError))
	assert.Equal(t, element, parsingError.Element)

	return parsingError
}

const documentHeader = `<?xml version="1.0" encoding="UTF-8"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0"><ServiceDelivery><VehicleMonitoringDelivery>`

const documentFooter = `</VehicleMonitoringDelivery></ServiceDelivery></Siri>`

func document(activities ...string) []byte {
	return []byte(documentHeader + strings.Join(activities, "") + documentFooter)
}

func activity(fields string) string {
	return "<VehicleActivity>" + fields + "</VehicleActivity>"
}

const validJourney = `<MonitoredVehicleJourney><VehicleLocation><Longitude>-1.5</Longitude><Latitude>53.8</Latitude></VehicleLocation></MonitoredVehicleJourney>`

func TestParseGoodPacket(t *testing.T) {
	siri, err := Parse(readFixture(t, "good_packet.xml"))
	require.NoError(t, err)

	assert.Equal(t, "DepartmentForTransport", siri.ServiceDelivery.ProducerRef)
	assert.Equal(t, "2022-01-29T19:49:42.330948+00:00", siri.ServiceDelivery.ResponseTimestamp)

	delivery := siri.ServiceDelivery.VehicleMonitoringDelivery
	assert.Equal(t, "b3c1a6e2-5f0d-4a8e-9a57-3f9ad2d3e9b1", delivery.RequestMessageRef)
	assert.Equal(t, "2022-01-29T19:54:42.330948+00:00", delivery.ValidUntil)
	assert.Equal(t, 5*time.Second, delivery.ShortestPossibleCycle)

	activities := siri.VehicleActivities()
	require.Len(t, activities, 4)

	first := activities[0]
	assert.True(t, first.RecordedAtTime.Equal(time.Date(2022, 1, 29, 16, 9, 19, 0, time.UTC)))
	_, offset := first.RecordedAtTime.Zone()
	assert.Equal(t, 0, offset)
	assert.Equal(t, "8fa128ab-ef16-428a-81c0-5fec77bc4f66", first.ItemIdentifier)

	assert.True(t, first.ValidUntilTime.Naive)
	assert.Equal(t, time.Date(2022, 1, 29, 19, 54, 42, 330948000, time.UTC), first.ValidUntilTime.Time)

	journey := first.MonitoredVehicleJourney
	assert.Equal(t, "9", journey.PublishedLineName)
	assert.Equal(t, "AKSS", journey.OperatorRef)
	assert.Equal(t, "2400A001770A", journey.DestinationRef)
	assert.Equal(t, 0.557191, journey.VehicleLocation.Longitude)
	assert.Equal(t, 51.277118, journey.VehicleLocation.Latitude)
	assert.Equal(t, "0320", journey.BlockRef)
	assert.Equal(t, "6409", journey.VehicleRef)

	assert.Equal(t, "9", journey.LineRef)
	assert.Equal(t, "outbound", journey.DirectionRef)
	require.NotNil(t, journey.FramedVehicleJourneyRef)
	assert.Equal(t, "2022-01-29", journey.FramedVehicleJourneyRef.DataFrameRef)
	assert.Equal(t, "1609", journey.FramedVehicleJourneyRef.DatedVehicleJourneyRef)
	assert.Equal(t, "1609", journey.VehicleJourneyRef)
	require.NotNil(t, journey.Bearing)
	assert.Equal(t, 135.0, *journey.Bearing)
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	siri, err := Parse(readFixture(t, "good_packet.xml"))
	require.NoError(t, err)

	var identifiers []string
	for _, activity := range siri.VehicleActivities() {
		identifiers = append(identifiers, activity.ItemIdentifier)
	}

	assert.Equal(t, []string{
		"8fa128ab-ef16-428a-81c0-5fec77bc4f66",
		"d7bfa8a5-6f30-4e84-9b2c-6b8b7c6c38f2",
		"2c0e0b9d-4f1e-4e55-8f34-6c1f4a1d7b70",
		"a9d3f0e4-8b21-4d5c-9e6f-0a1b2c3d4e5f",
	}, identifiers)
}

func TestParseOptionalJourneyFields(t *testing.T) {
	siri, err := Parse(readFixture(t, "good_packet.xml"))
	require.NoError(t, err)

	activities := siri.VehicleActivities()

	third := activities[2]
	assert.True(t, third.RecordedAtTime.Equal(time.Date(2022, 1, 29, 19, 48, 58, 0, time.UTC)))
	assert.False(t, third.ValidUntilTime.Naive)
	assert.True(t, third.ValidUntilTime.Equal(time.Date(2022, 1, 29, 19, 54, 42, 330948000, time.UTC)))
	assert.Nil(t, third.MonitoredVehicleJourney.FramedVehicleJourneyRef)
	assert.Equal(t, "VJ_X5_17", third.MonitoredVehicleJourney.JourneyRef())
	assert.Empty(t, third.MonitoredVehicleJourney.BlockRef)
	assert.Nil(t, third.MonitoredVehicleJourney.Bearing)

	last := activities[3].MonitoredVehicleJourney
	assert.Empty(t, last.PublishedLineName)
	assert.Empty(t, last.OperatorRef)
	assert.Empty(t, last.DestinationRef)
	assert.Empty(t, last.BlockRef)
	assert.Empty(t, last.VehicleRef)
	assert.Equal(t, -0.127758, last.VehicleLocation.Longitude)
	assert.True(t, activities[3].ValidUntilTime.Naive)
	assert.Equal(t, time.Date(2022, 1, 29, 19, 54, 42, 0, time.UTC), activities[3].ValidUntilTime.Time)
}

func TestParseIsDeterministic(t *testing.T) {
	data := readFixture(t, "good_packet.xml")

	first, err := Parse(data)
	require.NoError(t, err)
	second, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, second.VehicleActivities(), len(first.VehicleActivities()))
	for i, activity := range first.VehicleActivities() {
		other := second.VehicleActivities()[i]

		assert.True(t, activity.RecordedAtTime.Equal(other.RecordedAtTime))
		assert.True(t, activity.ValidUntilTime.Equal(other.ValidUntilTime.Time))
		assert.Equal(t, activity.ValidUntilTime.Naive, other.ValidUntilTime.Naive)
		assert.Equal(t, activity.ItemIdentifier, other.ItemIdentifier)
		assert.Equal(t, activity.MonitoredVehicleJourney, other.MonitoredVehicleJourney)
	}
}

func TestParseConcurrently(t *testing.T) {
	data := readFixture(t, "good_packet.xml")

	var wg sync.WaitGroup
	results := make([]int, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			siri, err := Parse(data)
			errs[i] = err
			if err == nil {
				results[i] = len(siri.VehicleActivities())
			}
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.NoError(t, errs[i])
		assert.Equal(t, 4, results[i])
	}
}

func TestParseMissingServiceDelivery(t *testing.T) {
	siri, err := Parse(readFixture(t, "missing_service_delivery.xml"))

	assert.Nil(t, siri)
	parsingError := requireParsingError(t, err, ErrMissingContainer, "ServiceDelivery")
	assert.Equal(t, "Siri/ServiceDelivery", parsingError.Path)
	assert.Contains(t, err.Error(), "ServiceDelivery")
}

func TestParseMissingVehicleMonitoringDelivery(t *testing.T) {
	siri, err := Parse(readFixture(t, "missing_vmd.xml"))

	assert.Nil(t, siri)
	parsingError := requireParsingError(t, err, ErrMissingContainer, "VehicleMonitoringDelivery")
	assert.Equal(t, "Siri/ServiceDelivery/VehicleMonitoringDelivery", parsingError.Path)
}

func TestParseMissingMonitoredVehicleJourney(t *testing.T) {
	siri, err := Parse(readFixture(t, "missing_mvj.xml"))

	assert.Nil(t, siri)
	parsingError := requireParsingError(t, err, ErrMissingContainer, "MonitoredVehicleJourney")
	assert.Equal(t, "Siri/ServiceDelivery/VehicleMonitoringDelivery/VehicleActivity[3]/MonitoredVehicleJourney", parsingError.Path)
}

func TestParseMissingVehicleLocation(t *testing.T) {
	siri, err := Parse(readFixture(t, "missing_vehicle_location.xml"))

	assert.Nil(t, siri)
	parsingError := requireParsingError(t, err, ErrMissingContainer, "VehicleLocation")
	assert.Equal(t, "Siri/ServiceDelivery/VehicleMonitoringDelivery/VehicleActivity[1]/MonitoredVehicleJourney/VehicleLocation", parsingError.Path)
}

func TestParseMissingVehicleJourneyRefs(t *testing.T) {
	siri, err := Parse(readFixture(t, "missing_vj_ref.xml"))
	require.NoError(t, err)

	journey := siri.VehicleActivities()[0].MonitoredVehicleJourney
	assert.Nil(t, journey.FramedVehicleJourneyRef)
	assert.Empty(t, journey.VehicleJourneyRef)
	assert.Empty(t, journey.JourneyRef())
	assert.Equal(t, "6409", journey.VehicleRef)
}

func TestParseEmptyDelivery(t *testing.T) {
	siri, err := Parse(document())
	require.NoError(t, err)

	assert.NotNil(t, siri.VehicleActivities())
	assert.Empty(t, siri.VehicleActivities())
	assert.Zero(t, siri.ServiceDelivery.VehicleMonitoringDelivery.ShortestPossibleCycle)
}

func TestParseMalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "not xml", data: "this is not xml"},
		{name: "unclosed element", data: `<Siri xmlns="http://www.siri.org.uk/siri"><ServiceDelivery></Siri>`},
		{name: "second root", data: `<Siri xmlns="http://www.siri.org.uk/siri"></Siri><Siri></Siri>`},
		{name: "trailing text", data: `<Siri xmlns="http://www.siri.org.uk/siri"></Siri>garbage`},
		{name: "truncated", data: string(document(activity(validJourney)))[:120]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			siri, err := Parse([]byte(tt.data))

			assert.Nil(t, siri)
			requireParsingError(t, err, ErrMalformedDocument, "")
			assert.NotErrorIs(t, err, ErrMissingContainer)
			assert.NotErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestParseIgnoresTrailingComments(t *testing.T) {
	data := append(document(), []byte("\n<!-- generated -->\n")...)

	_, err := Parse(data)
	assert.NoError(t, err)
}

func TestParseRequiresSiriNamespace(t *testing.T) {
	data := []byte(`<Siri><ServiceDelivery><VehicleMonitoringDelivery></VehicleMonitoringDelivery></ServiceDelivery></Siri>`)

	_, err := Parse(data)
	requireParsingError(t, err, ErrMissingContainer, "ServiceDelivery")
}

func TestParseMissingFields(t *testing.T) {
	const (
		recorded   = `<RecordedAtTime>2022-01-29T16:09:19+00:00</RecordedAtTime>`
		identifier = `<ItemIdentifier>abc</ItemIdentifier>`
		validUntil = `<ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>`
	)

	tests := []struct {
		name    string
		fields  string
		reason  error
		element string
	}{
		{name: "recorded at time", fields: identifier + validUntil + validJourney, reason: ErrMissingField, element: "RecordedAtTime"},
		{name: "item identifier", fields: recorded + validUntil + validJourney, reason: ErrMissingField, element: "ItemIdentifier"},
		{name: "valid until time", fields: recorded + identifier + validJourney, reason: ErrMissingField, element: "ValidUntilTime"},
		{name: "first missing field wins", fields: validJourney, reason: ErrMissingField, element: "RecordedAtTime"},
		{
			name:    "longitude",
			fields:  recorded + identifier + validUntil + `<MonitoredVehicleJourney><VehicleLocation><Latitude>53.8</Latitude></VehicleLocation></MonitoredVehicleJourney>`,
			reason:  ErrMissingField,
			element: "Longitude",
		},
		{
			name:    "latitude",
			fields:  recorded + identifier + validUntil + `<MonitoredVehicleJourney><VehicleLocation><Longitude>-1.5</Longitude></VehicleLocation></MonitoredVehicleJourney>`,
			reason:  ErrMissingField,
			element: "Latitude",
		},
		{
			name:    "vehicle location despite optional siblings",
			fields:  recorded + identifier + validUntil + `<MonitoredVehicleJourney><PublishedLineName>9</PublishedLineName></MonitoredVehicleJourney>`,
			reason:  ErrMissingContainer,
			element: "VehicleLocation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			siri, err := Parse(document(activity(tt.fields)))

			assert.Nil(t, siri)
			requireParsingError(t, err, tt.reason, tt.element)
		})
	}
}

func TestParseInvalidValues(t *testing.T) {
	journey := func(location string) string {
		return `<MonitoredVehicleJourney><VehicleLocation>` + location + `</VehicleLocation></MonitoredVehicleJourney>`
	}

	tests := []struct {
		name    string
		fields  string
		element string
		value   string
	}{
		{
			name:    "recorded at time without offset",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + validJourney,
			element: "RecordedAtTime",
			value:   "2022-01-29T16:09:19",
		},
		{
			name:    "valid until time garbage",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>tomorrow</ValidUntilTime>` + validJourney,
			element: "ValidUntilTime",
			value:   "tomorrow",
		},
		{
			name:    "longitude not numeric",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + journey(`<Longitude>east</Longitude><Latitude>53.8</Latitude>`),
			element: "Longitude",
			value:   "east",
		},
		{
			name:    "longitude hex float",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + journey(`<Longitude>0x1p-2</Longitude><Latitude>53.8</Latitude>`),
			element: "Longitude",
			value:   "0x1p-2",
		},
		{
			name:    "latitude upper case hex float",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + journey(`<Longitude>-1.5</Longitude><Latitude>-0X1.Ap4</Latitude>`),
			element: "Latitude",
			value:   "-0X1.Ap4",
		},
		{
			name:    "latitude empty",
			fields:  `<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + journey(`<Longitude>-1.5</Longitude><Latitude/>`),
			element: "Latitude",
			value:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(document(activity(tt.fields)))

			parsingError := requireParsingError(t, err, ErrInvalidValue, tt.element)
			assert.Equal(t, tt.value, parsingError.Value)
		})
	}
}

func TestParseFailsOnFirstFaultyActivity(t *testing.T) {
	good := activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + validJourney)
	noJourney := activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>b</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>`)
	noIdentifier := activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` + validJourney)

	siri, err := Parse(document(good, noJourney, noIdentifier))

	assert.Nil(t, siri)
	parsingError := requireParsingError(t, err, ErrMissingContainer, "MonitoredVehicleJourney")
	assert.Contains(t, parsingError.Path, "VehicleActivity[2]")
}

func TestParseDeliveryExtras(t *testing.T) {
	data := []byte(`<Siri xmlns="http://www.siri.org.uk/siri"><ServiceDelivery><VehicleMonitoringDelivery>` +
		`<ShortestPossibleCycle>soon</ShortestPossibleCycle>` +
		`</VehicleMonitoringDelivery></ServiceDelivery></Siri>`)

	_, err := Parse(data)
	requireParsingError(t, err, ErrInvalidValue, "ShortestPossibleCycle")

	bearing := activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` +
		`<MonitoredVehicleJourney><VehicleLocation><Longitude>-1.5</Longitude><Latitude>53.8</Latitude></VehicleLocation><Bearing>north</Bearing></MonitoredVehicleJourney>`)

	_, err = Parse(document(bearing))
	requireParsingError(t, err, ErrInvalidValue, "Bearing")

	separatedBearing := activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` +
		`<MonitoredVehicleJourney><VehicleLocation><Longitude>-1.5</Longitude><Latitude>53.8</Latitude></VehicleLocation><Bearing>1_80</Bearing></MonitoredVehicleJourney>`)

	_, err = Parse(document(separatedBearing))
	requireParsingError(t, err, ErrInvalidValue, "Bearing")
}

func TestParseNonFiniteCoordinates(t *testing.T) {
	siri, err := Parse(document(activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>` +
		`<MonitoredVehicleJourney><VehicleLocation><Longitude>NaN</Longitude><Latitude>-Inf</Latitude></VehicleLocation></MonitoredVehicleJourney>`)))
	require.NoError(t, err)

	location := siri.VehicleActivities()[0].MonitoredVehicleJourney.VehicleLocation
	assert.True(t, math.IsNaN(location.Longitude))
	assert.True(t, math.IsInf(location.Latitude, -1))
}

func TestParseDeclaredCharset(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		`<Siri xmlns="http://www.siri.org.uk/siri"><ServiceDelivery><VehicleMonitoringDelivery>` +
		activity(`<RecordedAtTime>2022-01-29T16:09:19Z</RecordedAtTime><ItemIdentifier>a</ItemIdentifier><ValidUntilTime>2022-01-29T19:54:42</ValidUntilTime>`+
			"<MonitoredVehicleJourney><DestinationName>Caf\xe9</DestinationName><VehicleLocation><Longitude>-1.5</Longitude><Latitude>53.8</Latitude></VehicleLocation></MonitoredVehicleJourney>") +
		documentFooter)

	siri, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Café", siri.VehicleActivities()[0].MonitoredVehicleJourney.DestinationName)
}

func TestParseXMLFile(t *testing.T) {
	file, err := os.Open(filepath.Join("testdata", "good_packet.xml"))
	require.NoError(t, err)
	defer file.Close()

	siri, err := ParseXMLFile(file)
	require.NoError(t, err)
	assert.Len(t, siri.VehicleActivities(), 4)
}

func TestDateTimeString(t *testing.T) {
	naive := DateTime{Time: time.Date(2022, 1, 29, 19, 54, 42, 330948000, time.UTC), Naive: true}
	assert.Equal(t, "2022-01-29T19:54:42.330948", naive.String())

	aware := DateTime{Time: time.Date(2022, 1, 29, 19, 54, 42, 0, time.UTC)}
	assert.Equal(t, "2022-01-29T19:54:42Z", aware.String())

	encoded, err := naive.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2022-01-29T19:54:42.330948"`, string(encoded))
}

func TestVehicleActivityJSONRoundTrip(t *testing.T) {
	siri, err := Parse(readFixture(t, "good_packet.xml"))
	require.NoError(t, err)

	for _, activity := range siri.VehicleActivities() {
		encoded, err := json.Marshal(activity)
		require.NoError(t, err)

		var decoded VehicleActivity
		require.NoError(t, json.Unmarshal(encoded, &decoded))

		assert.True(t, activity.RecordedAtTime.Equal(decoded.RecordedAtTime))
		assert.True(t, activity.ValidUntilTime.Equal(decoded.ValidUntilTime.Time))
		assert.Equal(t, activity.ValidUntilTime.Naive, decoded.ValidUntilTime.Naive)
		assert.Equal(t, activity.MonitoredVehicleJourney, decoded.MonitoredVehicleJourney)
	}

	var dateTime DateTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &dateTime))
}
