package bods

import "time"

type AdminArea struct {
	ATCOCode string `json:"atco_code"`
	Name     string `json:"name"`
}

type Locality struct {
	GazetteerID string `json:"gazetteer_id"`
	Name        string `json:"name"`
}

// Dataset holds the fields shared by timetable and fares datasets.
type Dataset struct {
	ID           int       `json:"id"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	OperatorName string    `json:"operatorName"`
	NOCs         []string  `json:"noc"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Comment      string    `json:"comment"`
	Status       string    `json:"status"`
	URL          string    `json:"url"`
}

type Timetable struct {
	Dataset

	Extension      string      `json:"extension"`
	Lines          []string    `json:"lines"`
	FirstStartDate *time.Time  `json:"firstStartDate"`
	FirstEndDate   *time.Time  `json:"firstEndDate"`
	LastEndDate    *time.Time  `json:"lastEndDate"`
	AdminAreas     []AdminArea `json:"adminAreas"`
	Localities     []Locality  `json:"localities"`
	DQScore        string      `json:"dqScore"`
	DQRag          string      `json:"dqRag"`
	BODSCompliance *bool       `json:"bodsCompliance"`
}

type Fare struct {
	Dataset

	NumOfLines              int `json:"numOfLines"`
	NumOfFareZones          int `json:"numOfFareZones"`
	NumOfSalesOfferPackages int `json:"numOfSalesOfferPackages"`
	NumOfFareProducts       int `json:"numOfFareProducts"`
	NumOfUserTypes          int `json:"numOfUserTypes"`
}

type TimetableResponse struct {
	Count    int          `json:"count"`
	Next     string       `json:"next"`
	Previous string       `json:"previous"`
	Results  []*Timetable `json:"results"`
}

type FaresResponse struct {
	Count    int     `json:"count"`
	Next     string  `json:"next"`
	Previous string  `json:"previous"`
	Results  []*Fare `json:"results"`
}
