package bods

import (
	"context"
	"fmt"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/travigo/bods-client/pkg/siri_vm"
	"google.golang.org/protobuf/proto"
)

// GetGTFSRTDataFeed fetches the GTFS-RT vehicle position feed and decodes the
// protobuf message.
func (c *Client) GetGTFSRTDataFeed(ctx context.Context, params *GTFSRTParams) (*gtfs.FeedMessage, error) {
	values, err := params.Values()
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, GTFSRTPath, values)
	if err != nil {
		return nil, err
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("decoding gtfs-rt feed: %w", err)
	}

	return feed, nil
}

// GetSIRIVMDataFeed returns the raw SIRI-VM XML document.
func (c *Client) GetSIRIVMDataFeed(ctx context.Context, params *SIRIVMParams) ([]byte, error) {
	values, err := params.Values()
	if err != nil {
		return nil, err
	}

	return c.get(ctx, SIRIVMPath, values)
}

// GetSiri fetches the SIRI-VM feed and parses it.
func (c *Client) GetSiri(ctx context.Context, params *SIRIVMParams) (*siri_vm.Siri, error) {
	body, err := c.GetSIRIVMDataFeed(ctx, params)
	if err != nil {
		return nil, err
	}

	return siri_vm.Parse(body)
}
