// Package kafkatest records published events in memory.
package kafkatest

import (
	"context"
	"sync"
)

type Message struct {
	Topic string
	Key   string
	Event interface{}
}

// Recorder implements kafka.Publisher. Err, when set, is returned from every Publish.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// OnTopic returns the messages published to topic.
func (r *Recorder) OnTopic(topic string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
