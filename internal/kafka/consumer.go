package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"solar-analytics/internal/config"
	"solar-analytics/internal/db"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
)

// observationMessage is the wire format produced by the collection adapters.
type observationMessage struct {
	Timestamp    time.Time `json:"timestamp"`
	SepIntensity float64   `json:"sep_intensity"`
	Temperature  *float64  `json:"temperature"`
	IceExtent    *float64  `json:"ice_extent"`
	OzoneLevel   *float64  `json:"ozone_level"`
	KpIndex      *float64  `json:"kp_index"`
	SolarFlux    *float64  `json:"solar_flux"`
	SunspotCount *float64  `json:"sunspot_count"`
	CosmicRays   *float64  `json:"cosmic_ray_count"`
	Aurora       *float64  `json:"aurora_activity"`
}

// Consumer reads observation records off Kafka and stores them.
type Consumer struct {
	reader   *kafka.Reader
	db       *db.DB
	logger   *logging.Logger
	onInsert func()
}

// NewConsumer builds a Consumer. onInsert is called after each stored
// observation so the boundary can invalidate derived caches.
func NewConsumer(cfg config.Config, database *db.DB, logger *logging.Logger, onInsert func()) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Kafka.Broker},
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	return &Consumer{reader: reader, db: database, logger: logger, onInsert: onInsert}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.reader.Config().Topic)

		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var record observationMessage
			if err := json.Unmarshal(msg.Value, &record); err != nil {
				c.logger.Errorf("Unmarshal message failed: %v", err)
				continue
			}
			if record.Timestamp.IsZero() {
				c.logger.Errorf("Invalid message: missing timestamp")
				continue
			}

			obs := models.Observation{
				ID:           uuid.New(),
				Timestamp:    record.Timestamp,
				SepIntensity: record.SepIntensity,
				Temperature:  record.Temperature,
				IceExtent:    record.IceExtent,
				OzoneLevel:   record.OzoneLevel,
				KpIndex:      record.KpIndex,
				SolarFlux:    record.SolarFlux,
				SunspotCount: record.SunspotCount,
				CosmicRays:   record.CosmicRays,
				Aurora:       record.Aurora,
			}
			if err := c.db.InsertObservation(ctx, obs); err != nil {
				c.logger.Errorf("Store observation failed: %v", err)
				continue
			}
			if c.onInsert != nil {
				c.onInsert()
			}
			c.logger.Debugf("Stored observation at %s (intensity %.2f)", obs.Timestamp.Format(time.RFC3339), obs.SepIntensity)
		}
	}()
}

// Close shuts the underlying reader down.
func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}
