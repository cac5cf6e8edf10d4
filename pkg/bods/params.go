package bods

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slices"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("dataset_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(DatasetStatuses, fl.Field().String())
	})

	return v
}

type TimetableParams struct {
	AdminAreas []string
	// NOCs are sent comma separated as the timetables endpoint only
	// recognises the last of several noc parameters.
	NOCs   []string
	Status string `validate:"omitempty,dataset_status"`
	Search string

	ModifiedDate   *time.Time
	StartDateStart *time.Time
	StartDateEnd   *time.Time
	EndDateStart   *time.Time
	EndDateEnd     *time.Time

	DQRag          string `validate:"omitempty,oneof=red amber green"`
	BODSCompliance *bool

	Limit  int `validate:"gte=0"`
	Offset int `validate:"gte=0"`
}

func (p *TimetableParams) Values() (url.Values, error) {
	if p == nil {
		p = &TimetableParams{}
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid timetable params: %w", err)
	}

	values := pageValues(p.Limit, p.Offset)

	if len(p.AdminAreas) > 0 {
		values.Set("adminArea", strings.Join(p.AdminAreas, ","))
	}
	if len(p.NOCs) > 0 {
		values.Set("noc", strings.Join(p.NOCs, ","))
	}
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}

	setDate(values, "modifiedDate", p.ModifiedDate)
	setDate(values, "startDateStart", p.StartDateStart)
	setDate(values, "startDateEnd", p.StartDateEnd)
	setDate(values, "endDateStart", p.EndDateStart)
	setDate(values, "endDateEnd", p.EndDateEnd)

	if p.DQRag != "" {
		values.Set("dqRag", p.DQRag)
	}
	if p.BODSCompliance != nil {
		values.Set("bodsCompliance", strconv.FormatBool(*p.BODSCompliance))
	}

	return values, nil
}

type FaresParams struct {
	NOCs        []string
	Status      string       `validate:"omitempty,dataset_status"`
	BoundingBox *BoundingBox `validate:"omitempty"`

	Limit  int `validate:"gte=0"`
	Offset int `validate:"gte=0"`
}

func (p *FaresParams) Values() (url.Values, error) {
	if p == nil {
		p = &FaresParams{}
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid fares params: %w", err)
	}

	values := pageValues(p.Limit, p.Offset)

	for _, noc := range p.NOCs {
		values.Add("noc", noc)
	}
	if p.Status != "" {
		values.Set("status", p.Status)
	}
	if p.BoundingBox != nil {
		values.Set("boundingBox", p.BoundingBox.CSV())
	}

	return values, nil
}

type SIRIVMParams struct {
	BoundingBox    *BoundingBox `validate:"omitempty"`
	OperatorRefs   []string
	LineRef        string
	ProducerRef    string
	OriginRef      string
	DestinationRef string
	VehicleRef     string
}

func (p *SIRIVMParams) Values() (url.Values, error) {
	values := url.Values{}
	if p == nil {
		return values, nil
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid siri-vm params: %w", err)
	}

	if p.BoundingBox != nil {
		values.Set("boundingBox", p.BoundingBox.CSV())
	}
	if len(p.OperatorRefs) > 0 {
		values.Set("operatorRef", strings.Join(p.OperatorRefs, ","))
	}

	setString(values, "lineRef", p.LineRef)
	setString(values, "producerRef", p.ProducerRef)
	setString(values, "originRef", p.OriginRef)
	setString(values, "destinationRef", p.DestinationRef)
	setString(values, "vehicleRef", p.VehicleRef)

	return values, nil
}

type GTFSRTParams struct {
	BoundingBox     *BoundingBox `validate:"omitempty"`
	RouteID         string
	StartTimeAfter  *time.Time
	StartTimeBefore *time.Time
}

func (p *GTFSRTParams) Values() (url.Values, error) {
	values := url.Values{}
	if p == nil {
		return values, nil
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid gtfs-rt params: %w", err)
	}
	if p.StartTimeAfter != nil && p.StartTimeBefore != nil {
		return nil, ErrConflictingStartTime
	}

	if p.BoundingBox != nil {
		values.Set("boundingBox", p.BoundingBox.CSV())
	}
	setString(values, "routeId", p.RouteID)

	if p.StartTimeAfter != nil {
		values.Set("startTimeAfter", strconv.FormatInt(p.StartTimeAfter.Unix(), 10))
	}
	if p.StartTimeBefore != nil {
		values.Set("startTimeBefore", strconv.FormatInt(p.StartTimeBefore.Unix(), 10))
	}

	return values, nil
}

func pageValues(limit, offset int) url.Values {
	if limit == 0 {
		limit = DefaultLimit
	}

	return url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
}

func setString(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

func setDate(values url.Values, key string, value *time.Time) {
	if value != nil {
		values.Set(key, value.Format(DateTimeFormat))
	}
}
