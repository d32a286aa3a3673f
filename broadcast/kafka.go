package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink appends every message to a topic, keyed by student and exam so
// one attempt's messages stay in order on a single partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{client: cl, topic: topic}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, msg models.BroadcastMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   recordKey(msg),
		Value: data,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	s.client.Close()
	return nil
}

func recordKey(msg models.BroadcastMessage) []byte {
	return []byte(fmt.Sprintf("%d:%d", msg.StudentID, msg.ExamID))
}
