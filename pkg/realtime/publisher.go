package realtime

import (
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/siri_vm"
)

const QueueName = "realtime-queue"

// Activities that haven't been updated within MaxActivityAge are not published.
const MaxActivityAge = 20 * time.Minute

const backlogWarningSize = 40000

type Publisher struct {
	queue rmq.Queue
}

func NewPublisher(connection rmq.Connection) (*Publisher, error) {
	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}

	return &Publisher{queue: queue}, nil
}

// Publish pushes every fresh activity of siri onto the realtime queue and
// returns how many were published.
func (p *Publisher) Publish(siri *siri_vm.Siri, currentTime time.Time) (int, error) {
	var retrievedRecords int
	var submittedRecords int

	for _, activity := range siri.VehicleActivities() {
		retrievedRecords++

		if currentTime.Sub(activity.RecordedAtTime) > MaxActivityAge {
			continue
		}

		event := NewVehicleLocationEvent(activity, siri.ServiceDelivery, currentTime)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("localid", event.LocalID).Msg("Failed to encode vehicle location event")
			continue
		}

		if err := p.queue.PublishBytes(eventJSON); err != nil {
			return submittedRecords, err
		}

		submittedRecords++
	}

	log.Info().Int("retrieved", retrievedRecords).Int("submitted", submittedRecords).Msg("Published latest Siri-VM response")

	return submittedRecords, nil
}

// QueueBacklog returns the number of events waiting to be consumed and logs
// a warning when consumers are falling behind.
func QueueBacklog(connection rmq.Connection) (int64, error) {
	stats, err := connection.CollectStats([]string{QueueName})
	if err != nil {
		return 0, err
	}

	inQueue := stats.QueueStats[QueueName].ReadyCount
	if inQueue >= backlogWarningSize {
		log.Warn().Int64("queuesize", inQueue).Msg("Realtime queue is backing up")
	}

	return inQueue, nil
}
