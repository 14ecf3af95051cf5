package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SyllabusOutline is the structured study outline returned to clients.
type SyllabusOutline struct {
	Subject string `json:"subject"`
	Units   []Unit `json:"units"`
}

type Unit struct {
	Name          string  `json:"unit_name"`
	VeryImportant []Topic `json:"very_important"`
	Important     []Topic `json:"important"`
	Optional      []Topic `json:"optional"`
}

// PlaylistRef points at a video playlist that covers a topic.
type PlaylistRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Topic is a single study topic. Before enrichment it encodes as a bare JSON
// string; once enriched it encodes as {"topic": ..., "playlist": ...} with a
// null playlist when no match was found.
type Topic struct {
	Name     string
	Playlist *PlaylistRef
	Enriched bool
}

type enrichedTopic struct {
	Topic    string       `json:"topic"`
	Playlist *PlaylistRef `json:"playlist"`
}

// NewTopics wraps plain topic names.
func NewTopics(names ...string) []Topic {
	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		topics = append(topics, Topic{Name: name})
	}
	return topics
}

func (t Topic) MarshalJSON() ([]byte, error) {
	if !t.Enriched {
		return json.Marshal(t.Name)
	}
	return json.Marshal(enrichedTopic{Topic: t.Name, Playlist: t.Playlist})
}

func (t *Topic) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty topic")
	}

	switch trimmed[0] {
	case '{':
		var e enrichedTopic
		if err := json.Unmarshal(trimmed, &e); err != nil {
			return err
		}
		*t = Topic{Name: e.Topic, Playlist: e.Playlist, Enriched: true}
		return nil
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*t = Topic{Name: name}
		return nil
	case '[':
		return fmt.Errorf("topic must be a string or object, got array")
	default:
		// Models occasionally emit bare numbers or booleans; keep their literal text.
		if bytes.Equal(trimmed, []byte("null")) {
			*t = Topic{}
			return nil
		}
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*t = Topic{Name: string(trimmed)}
		return nil
	}
}

// TopicNames returns the bare names of the given topics.
func TopicNames(topics []Topic) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		out = append(out, topic.Name)
	}
	return out
}
