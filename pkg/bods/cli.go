package bods

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/bods-client/pkg/config"
	"github.com/travigo/bods-client/pkg/feedcache"
	"github.com/travigo/bods-client/pkg/realtime"
	"github.com/travigo/bods-client/pkg/redis_client"
	"github.com/travigo/bods-client/pkg/siri_vm"
	"github.com/travigo/bods-client/pkg/util"
	"github.com/travigo/bods-client/pkg/vehiclestore"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"
	"google.golang.org/protobuf/encoding/protojson"
)

const maxConcurrentFetches = 4

const outputXML = "xml"

func RegisterCLI() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "timetables",
			Usage: "Query timetable datasets",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "List timetable datasets matching the filters",
					Flags: append(pageFlags(),
						&cli.StringSliceFlag{Name: "noc", Usage: "National Operator Code, repeatable or comma separated"},
						&cli.StringSliceFlag{Name: "admin-area", Usage: "ATCO admin area code, repeatable or comma separated"},
						&cli.StringFlag{Name: "status", Usage: "Dataset status: " + strings.Join(DatasetStatuses, ", ")},
						&cli.StringFlag{Name: "search", Usage: "Search term"},
						&cli.StringFlag{Name: "dq-rag", Usage: "Data quality rating: red, amber or green"},
						&cli.StringFlag{Name: "modified-since", Usage: "Only datasets modified after this date (2006-01-02T15:04:05)"},
						&cli.BoolFlag{Name: "all", Usage: "Follow the next links and return every page"},
						outputFlag(),
					),
					Action: func(c *cli.Context) error {
						client, err := NewClientFromConfig(config.Current)
						if err != nil {
							return err
						}
						if err := checkOutput(c, util.OutputFormats); err != nil {
							return err
						}

						modifiedDate, err := dateFlag(c, "modified-since")
						if err != nil {
							return err
						}

						params := &TimetableParams{
							NOCs:         util.SplitCSV(c.StringSlice("noc")),
							AdminAreas:   util.SplitCSV(c.StringSlice("admin-area")),
							Status:       c.String("status"),
							Search:       c.String("search"),
							DQRag:        c.String("dq-rag"),
							ModifiedDate: modifiedDate,
							Limit:        c.Int("limit"),
							Offset:       c.Int("offset"),
						}

						var timetables []*Timetable
						if c.Bool("all") {
							timetables, err = client.GetAllTimetableDatasets(c.Context, params)
						} else {
							var response *TimetableResponse
							response, err = client.GetTimetableDatasets(c.Context, params)
							if response != nil {
								timetables = response.Results
								log.Info().Int("count", response.Count).Int("returned", len(timetables)).Msg("Retrieved timetable datasets")
							}
						}
						if err != nil {
							return err
						}

						return writeDatasets(c, timetables, TimetableRecords(timetables))
					},
				},
				{
					Name:      "get",
					Usage:     "Get timetable datasets by id",
					ArgsUsage: "<id> [<id>...]",
					Flags:     []cli.Flag{outputFlag()},
					Action: func(c *cli.Context) error {
						client, err := NewClientFromConfig(config.Current)
						if err != nil {
							return err
						}
						if err := checkOutput(c, util.OutputFormats); err != nil {
							return err
						}

						ids, err := idArgs(c)
						if err != nil {
							return err
						}

						timetables, err := fetchByID(c.Context, ids, client.GetTimetableDataset)
						if err != nil {
							return err
						}

						return writeDatasets(c, timetables, TimetableRecords(timetables))
					},
				},
			},
		},
		{
			Name:  "fares",
			Usage: "Query fares datasets",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "List fares datasets matching the filters",
					Flags: append(pageFlags(),
						&cli.StringSliceFlag{Name: "noc", Usage: "National Operator Code, repeatable or comma separated"},
						&cli.StringFlag{Name: "status", Usage: "Dataset status: " + strings.Join(DatasetStatuses, ", ")},
						&cli.StringFlag{Name: "bounding-box", Usage: "min_lon,min_lat,max_lon,max_lat"},
						outputFlag(),
					),
					Action: func(c *cli.Context) error {
						client, err := NewClientFromConfig(config.Current)
						if err != nil {
							return err
						}
						if err := checkOutput(c, util.OutputFormats); err != nil {
							return err
						}

						boundingBox, err := boundingBoxFlag(c)
						if err != nil {
							return err
						}

						response, err := client.GetFareDatasets(c.Context, &FaresParams{
							NOCs:        util.SplitCSV(c.StringSlice("noc")),
							Status:      c.String("status"),
							BoundingBox: boundingBox,
							Limit:       c.Int("limit"),
							Offset:      c.Int("offset"),
						})
						if err != nil {
							return err
						}

						log.Info().Int("count", response.Count).Int("returned", len(response.Results)).Msg("Retrieved fares datasets")

						return writeDatasets(c, response.Results, FareRecords(response.Results))
					},
				},
				{
					Name:      "get",
					Usage:     "Get fares datasets by id",
					ArgsUsage: "<id> [<id>...]",
					Flags:     []cli.Flag{outputFlag()},
					Action: func(c *cli.Context) error {
						client, err := NewClientFromConfig(config.Current)
						if err != nil {
							return err
						}
						if err := checkOutput(c, util.OutputFormats); err != nil {
							return err
						}

						ids, err := idArgs(c)
						if err != nil {
							return err
						}

						fares, err := fetchByID(c.Context, ids, client.GetFareDataset)
						if err != nil {
							return err
						}

						return writeDatasets(c, fares, FareRecords(fares))
					},
				},
			},
		},
		{
			Name:  "gtfs-rt",
			Usage: "Fetch the GTFS-RT vehicle positions feed",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "bounding-box", Usage: "min_lon,min_lat,max_lon,max_lat"},
				&cli.StringFlag{Name: "route-id", Usage: "GTFS route id"},
				&cli.TimestampFlag{Name: "start-time-after", Layout: time.RFC3339, Usage: "Only trips starting after this time"},
				&cli.TimestampFlag{Name: "start-time-before", Layout: time.RFC3339, Usage: "Only trips starting before this time"},
				outputFlag(),
			},
			Action: func(c *cli.Context) error {
				client, err := NewClientFromConfig(config.Current)
				if err != nil {
					return err
				}
				if err := checkOutput(c, util.OutputFormats); err != nil {
					return err
				}

				boundingBox, err := boundingBoxFlag(c)
				if err != nil {
					return err
				}

				feed, err := client.GetGTFSRTDataFeed(c.Context, &GTFSRTParams{
					BoundingBox:     boundingBox,
					RouteID:         c.String("route-id"),
					StartTimeAfter:  c.Timestamp("start-time-after"),
					StartTimeBefore: c.Timestamp("start-time-before"),
				})
				if err != nil {
					return err
				}

				log.Info().Int("entities", len(feed.GetEntity())).Msg("Retrieved GTFS-RT feed")

				if c.String("output") == util.OutputJSON {
					encoded, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(feed)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(encoded))
					return err
				}

				return util.WriteOutput(c.App.Writer, c.String("output"), GTFSRTRecords(feed))
			},
		},
		{
			Name:  "siri-vm",
			Usage: "Fetch and parse SIRI-VM vehicle monitoring documents",
			Subcommands: []*cli.Command{
				{
					Name:  "fetch",
					Usage: "Fetch the SIRI-VM feed from the API",
					Flags: append(siriFlags(),
						&cli.StringFlag{Name: "bounding-box", Usage: "min_lon,min_lat,max_lon,max_lat"},
						&cli.StringSliceFlag{Name: "operator-ref", Usage: "Operator NOC, repeatable or comma separated"},
						&cli.StringFlag{Name: "line-ref", Usage: "Line reference"},
						&cli.StringFlag{Name: "producer-ref", Usage: "Producer reference"},
						&cli.StringFlag{Name: "origin-ref", Usage: "Origin stop reference"},
						&cli.StringFlag{Name: "destination-ref", Usage: "Destination stop reference"},
						&cli.StringFlag{Name: "vehicle-ref", Usage: "Vehicle reference"},
						&cli.DurationFlag{Name: "repeat-every", Usage: "Repeat the fetch on this interval"},
					),
					Action: func(c *cli.Context) error {
						client, err := NewClientFromConfig(config.Current)
						if err != nil {
							return err
						}
						if err := checkOutput(c, []string{util.OutputJSON, util.OutputCSV, util.OutputPretty, outputXML}); err != nil {
							return err
						}

						boundingBox, err := boundingBoxFlag(c)
						if err != nil {
							return err
						}

						params := &SIRIVMParams{
							BoundingBox:    boundingBox,
							OperatorRefs:   util.SplitCSV(c.StringSlice("operator-ref")),
							LineRef:        c.String("line-ref"),
							ProducerRef:    c.String("producer-ref"),
							OriginRef:      c.String("origin-ref"),
							DestinationRef: c.String("destination-ref"),
							VehicleRef:     c.String("vehicle-ref"),
						}
						values, err := params.Values()
						if err != nil {
							return err
						}

						handler, err := newSiriHandler(c, config.Current)
						if err != nil {
							return err
						}
						defer handler.Close()

						fetch := func(ctx context.Context) ([]byte, error) {
							return client.GetSIRIVMDataFeed(ctx, params)
						}
						cacheKey := feedcache.Key(SIRIVMPath, values)

						repeatDuration := c.Duration("repeat-every")

						for {
							startTime := time.Now()

							var body []byte
							if handler.cache != nil {
								body, err = handler.cache.GetOrFetch(c.Context, cacheKey, fetch)
							} else {
								body, err = fetch(c.Context)
							}
							if err != nil {
								return err
							}

							if err := handler.HandleDocument(c.Context, body, time.Now()); err != nil {
								return err
							}

							if repeatDuration <= 0 {
								break
							}

							executionDuration := time.Since(startTime)
							log.Info().Msgf("Operation took %s", executionDuration.String())

							select {
							case <-c.Context.Done():
								return nil
							case <-time.After(repeatDuration - executionDuration):
							}
						}

						return nil
					},
				},
				{
					Name:      "parse",
					Usage:     "Parse a SIRI-VM document from disk",
					ArgsUsage: "<file>",
					Flags:     siriFlags(),
					Action: func(c *cli.Context) error {
						if c.NArg() != 1 {
							return errors.New("expected exactly one file")
						}
						if err := checkOutput(c, util.OutputFormats); err != nil {
							return err
						}

						file, err := os.Open(c.Args().First())
						if err != nil {
							return err
						}
						defer file.Close()

						siri, err := siri_vm.ParseXMLFile(file)
						if err != nil {
							return err
						}

						handler, err := newSiriHandler(c, config.Current)
						if err != nil {
							return err
						}
						defer handler.Close()

						return handler.Handle(c.Context, siri, time.Now())
					},
				},
			},
		},
	}
}

// NewClientFromConfig builds a client from the loaded configuration.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	opts := []Option{WithMaxRetries(cfg.MaxRetries)}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	return NewClient(cfg.APIKey, opts...), nil
}

// siriHandler sends parsed documents to the configured destinations.
type siriHandler struct {
	output string
	writer io.Writer

	cache     *feedcache.FeedCache
	publisher *realtime.Publisher
	store     *vehiclestore.VehicleStore
}

func newSiriHandler(c *cli.Context, cfg *config.Config) (*siriHandler, error) {
	handler := &siriHandler{
		output: c.String("output"),
		writer: c.App.Writer,
	}

	if cfg.Redis.Enabled() {
		if err := redis_client.Connect(cfg.Redis); err != nil {
			return nil, err
		}
		handler.cache = feedcache.New(redis_client.Client, cfg.Redis.CacheTTL)
	}

	if c.Bool("publish") {
		if !cfg.Redis.Enabled() {
			return nil, errors.New("publishing needs a Redis address, set BODS_REDIS_ADDRESS")
		}

		publisher, err := realtime.NewPublisher(redis_client.QueueConnection)
		if err != nil {
			return nil, err
		}
		handler.publisher = publisher
	}

	if c.Bool("archive") {
		archivePath := c.String("archive-path")
		if archivePath == "" {
			archivePath = cfg.Archive.Path
		}

		store, err := vehiclestore.Open(archivePath)
		if err != nil {
			return nil, err
		}
		handler.store = store
	}

	return handler, nil
}

// HandleDocument parses body and hands the result on. With xml output the
// raw document is written instead of the parsed one.
func (h *siriHandler) HandleDocument(ctx context.Context, body []byte, currentTime time.Time) error {
	siri, err := siri_vm.Parse(body)
	if err != nil {
		return err
	}

	if err := h.process(ctx, siri, currentTime); err != nil {
		return err
	}

	if h.output == outputXML {
		_, err := h.writer.Write(body)
		return err
	}

	return h.write(siri)
}

func (h *siriHandler) Handle(ctx context.Context, siri *siri_vm.Siri, currentTime time.Time) error {
	if err := h.process(ctx, siri, currentTime); err != nil {
		return err
	}

	return h.write(siri)
}

func (h *siriHandler) process(ctx context.Context, siri *siri_vm.Siri, currentTime time.Time) error {
	log.Info().Int("activities", len(siri.VehicleActivities())).Msg("Parsed Siri-VM document")

	if h.publisher != nil {
		if _, err := h.publisher.Publish(siri, currentTime); err != nil {
			return err
		}
		if _, err := realtime.QueueBacklog(redis_client.QueueConnection); err != nil {
			log.Error().Err(err).Msg("Failed to read realtime queue size")
		}
	}

	if h.store != nil {
		archived, err := h.store.Load(ctx, siri.VehicleActivities())
		if err != nil {
			return err
		}
		log.Info().Int("archived", archived).Msg("Archived vehicle activities")
	}

	return nil
}

func (h *siriHandler) write(siri *siri_vm.Siri) error {
	if h.output == util.OutputCSV {
		return util.WriteOutput(h.writer, h.output, SiriRecords(siri))
	}

	return util.WriteOutput(h.writer, h.output, siri)
}

func (h *siriHandler) Close() {
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close vehicle archive")
		}
	}
	if h.cache != nil || h.publisher != nil {
		if err := redis_client.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

type indexedResult[T any] struct {
	index int
	value T
}

// fetchByID runs fetch for every id with bounded concurrency and returns the
// results in the order of ids.
func fetchByID[T any](ctx context.Context, ids []int, fetch func(context.Context, int) (T, error)) ([]T, error) {
	p := pool.NewWithResults[indexedResult[T]]().WithContext(ctx).WithMaxGoroutines(maxConcurrentFetches)

	for i, id := range ids {
		i, id := i, id
		p.Go(func(ctx context.Context) (indexedResult[T], error) {
			value, err := fetch(ctx, id)
			if err != nil {
				return indexedResult[T]{}, fmt.Errorf("dataset %d: %w", id, err)
			}

			return indexedResult[T]{index: i, value: value}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b indexedResult[T]) int {
		return a.index - b.index
	})

	values := make([]T, 0, len(results))
	for _, result := range results {
		values = append(values, result.value)
	}

	return values, nil
}

func writeDatasets[T any](c *cli.Context, datasets []T, records []DatasetRecord) error {
	if c.String("output") == util.OutputCSV {
		return util.WriteOutput(c.App.Writer, util.OutputCSV, records)
	}

	return util.WriteOutput(c.App.Writer, c.String("output"), datasets)
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   util.OutputJSON,
		Usage:   "Output format: json, csv or pretty",
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: DefaultLimit, Usage: "Results per page"},
		&cli.IntFlag{Name: "offset", Usage: "Results to skip"},
	}
}

func siriFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   util.OutputJSON,
			Usage:   "Output format: json, csv, pretty or xml (fetch only)",
		},
		&cli.BoolFlag{Name: "publish", Usage: "Publish fresh vehicle activities to the realtime queue"},
		&cli.BoolFlag{Name: "archive", Usage: "Archive vehicle activities into SQLite"},
		&cli.StringFlag{Name: "archive-path", Usage: "SQLite file for --archive, defaults to archive.path from the config"},
	}
}

func checkOutput(c *cli.Context, formats []string) error {
	if !slices.Contains(formats, c.String("output")) {
		return fmt.Errorf("unsupported output %q, expected one of %v", c.String("output"), formats)
	}

	return nil
}

func idArgs(c *cli.Context) ([]int, error) {
	if c.NArg() == 0 {
		return nil, errors.New("at least one dataset id is required")
	}

	var ids []int
	for _, arg := range util.SplitCSV(c.Args().Slice()) {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid dataset id %q", arg)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func dateFlag(c *cli.Context, name string) (*time.Time, error) {
	if c.String(name) == "" {
		return nil, nil
	}

	date, err := time.Parse(DateTimeFormat, c.String(name))
	if err != nil {
		date, err = time.Parse("2006-01-02", c.String(name))
	}
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}

	return &date, nil
}

func boundingBoxFlag(c *cli.Context) (*BoundingBox, error) {
	if c.String("bounding-box") == "" {
		return nil, nil
	}

	return ParseBoundingBox(c.String("bounding-box"))
}
