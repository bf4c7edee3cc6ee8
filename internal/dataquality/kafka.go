package dataquality

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives ledger data-quality reports.
const DefaultTopic = "printdesk.ledger.rejected"

// publishBatchTimeout caps the wait for a batch to fill. Reports are written
// one at a time from the statement path.
const publishBatchTimeout = 10 * time.Millisecond

// MessageWriter is the subset of *kafka.Writer used by KafkaReporter.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReporter publishes reports as JSON messages keyed by account.
type KafkaReporter struct {
	writer MessageWriter
}

// NewKafkaReporter builds a reporter writing to topic on brokers.
func NewKafkaReporter(brokers []string, topic string) *KafkaReporter {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaReporter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           publishBatchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewKafkaReporterWithWriter wraps an existing writer.
func NewKafkaReporterWithWriter(w MessageWriter) *KafkaReporter {
	return &KafkaReporter{writer: w}
}

// Report implements Reporter.
func (k *KafkaReporter) Report(ctx context.Context, report Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("dataquality: encode report: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(report.AccountType + ":" + strconv.FormatInt(report.AccountID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "report_id", Value: []byte(report.ID.String())},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("dataquality: publish report: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaReporter) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
