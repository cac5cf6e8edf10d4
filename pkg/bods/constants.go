package bods

import "time"

const (
	APIURL = "https://data.bus-data.dft.gov.uk/api/v1"

	TimetablesPath = "/dataset"
	FaresPath      = "/fares/dataset"
	GTFSRTPath     = "/gtfsrtdatafeed"
	SIRIVMPath     = "/datafeed"
)

// DateTimeFormat is the layout the API expects for date query parameters.
const DateTimeFormat = "2006-01-02T15:04:05"

const (
	DefaultLimit      = 25
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
)

var DatasetStatuses = []string{"published", "error", "expired", "inactive"}
