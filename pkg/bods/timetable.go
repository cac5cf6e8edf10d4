package bods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetTimetableDatasets fetches one page of timetable dataset metadata. The
// actual datasets are downloaded from each result's URL.
func (c *Client) GetTimetableDatasets(ctx context.Context, params *TimetableParams) (*TimetableResponse, error) {
	values, err := params.Values()
	if err != nil {
		return nil, err
	}

	var response TimetableResponse
	if err := c.getJSON(ctx, TimetablesPath, values, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// GetAllTimetableDatasets follows the next links from the first page until
// every matching dataset has been retrieved. Next links must stay on the API
// host and paging stops if a link repeats.
func (c *Client) GetAllTimetableDatasets(ctx context.Context, params *TimetableParams) ([]*Timetable, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	datasetList, err := c.GetTimetableDatasets(ctx, params)
	if err != nil {
		return nil, err
	}

	results := datasetList.Results
	visited := map[string]bool{}

	for datasetList.Next != "" {
		if visited[datasetList.Next] {
			log.Warn().Str("next", datasetList.Next).Msg("Timetable pagination repeated a page, stopping")
			break
		}
		visited[datasetList.Next] = true

		nextURL, err := url.Parse(datasetList.Next)
		if err != nil {
			return nil, fmt.Errorf("invalid next link %q: %w", datasetList.Next, err)
		}
		if !strings.EqualFold(nextURL.Host, baseURL.Host) {
			return nil, fmt.Errorf("%w: %s", ErrForeignNextLink, nextURL.Host)
		}

		body, err := c.getURL(ctx, nextURL)
		if err != nil {
			return nil, err
		}

		datasetList = &TimetableResponse{}
		if err := json.Unmarshal(body, datasetList); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", TimetablesPath, err)
		}

		results = append(results, datasetList.Results...)
	}

	return results, nil
}

func (c *Client) GetTimetableDataset(ctx context.Context, datasetID int) (*Timetable, error) {
	var timetable Timetable
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", TimetablesPath, datasetID), url.Values{}, &timetable); err != nil {
		return nil, err
	}

	return &timetable, nil
}
