package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/siri_vm"
)

const numConsumers = 2
const batchSize = 200

// Sink receives the activities decoded from a batch of queue events.
type Sink interface {
	Load(ctx context.Context, activities []siri_vm.VehicleActivity) (int, error)
}

func StartConsumers(connection rmq.Connection, sink Sink) error {
	log.Info().Msg("Starting realtime consumers")

	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return err
	}
	if err := queue.StartConsuming(numConsumers*batchSize, 1*time.Second); err != nil {
		return err
	}

	for i := 0; i < numConsumers; i++ {
		log.Info().Msgf("Starting realtime consumer %d", i)

		if _, err := queue.AddBatchConsumer(fmt.Sprintf("realtime-queue-%d", i), batchSize, 2*time.Second, NewBatchConsumer(i, sink)); err != nil {
			return err
		}
	}

	return nil
}

type BatchConsumer struct {
	id   int
	sink Sink
}

func NewBatchConsumer(id int, sink Sink) *BatchConsumer {
	return &BatchConsumer{id: id, sink: sink}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	var accepted rmq.Deliveries
	var activities []siri_vm.VehicleActivity

	for _, delivery := range batch {
		var event VehicleLocationEvent
		if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil {
			log.Error().Err(err).Int("consumer", consumer.id).Msg("Rejecting undecodable realtime event")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject realtime event")
			}
			continue
		}

		accepted = append(accepted, delivery)
		activities = append(activities, event.VehicleActivity)
	}

	if len(accepted) == 0 {
		return
	}

	startTime := time.Now()
	loaded, err := consumer.sink.Load(context.Background(), activities)
	if err != nil {
		log.Error().Err(err).Int("consumer", consumer.id).Msg("Failed to store realtime events")

		for _, err := range accepted.Reject() {
			log.Error().Err(err).Msg("Failed to reject realtime event")
		}
		return
	}

	log.Debug().Int("consumer", consumer.id).Int("length", loaded).Str("time", time.Since(startTime).String()).Msg("Stored realtime events")

	for _, err := range accepted.Ack() {
		log.Error().Err(err).Msg("Failed to ack realtime event")
	}
}
