package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "training_status", "epoch_metrics")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "training", "epoch", "done")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// TrainingStatus describes where the run currently is in its pipeline
type TrainingStatus struct {
	State   string `json:"state"`   // loading, sampling, training, done, failed
	Message string `json:"message"` // Human-readable status message
	Epoch   int    `json:"epoch"`   // Current epoch (0 before training starts)
	Total   int    `json:"total"`   // Configured epoch budget
}

// EpochMetrics carries one epoch's loss and per-split accuracies
type EpochMetrics struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	TrainAcc float64 `json:"train_acc"`
	ValidAcc float64 `json:"valid_acc"`
	TestAcc  float64 `json:"test_acc"`
	BestAcc  float64 `json:"best_valid_acc"`
}
