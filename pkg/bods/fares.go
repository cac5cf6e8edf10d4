package bods

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) GetFareDatasets(ctx context.Context, params *FaresParams) (*FaresResponse, error) {
	values, err := params.Values()
	if err != nil {
		return nil, err
	}

	var response FaresResponse
	if err := c.getJSON(ctx, FaresPath, values, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) GetFareDataset(ctx context.Context, datasetID int) (*Fare, error) {
	var fare Fare
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", FaresPath, datasetID), url.Values{}, &fare); err != nil {
		return nil, err
	}

	return &fare, nil
}
