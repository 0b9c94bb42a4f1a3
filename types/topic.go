package types

import (
	"encoding/json"
	"fmt"
)

// Topic is the category a verification message is routed by.
type Topic string

// Known topics.
const (
	TopicHeaderVerified     Topic = "header-verified"
	TopicConfidenceAchieved Topic = "confidence-achieved"
	TopicDataVerified       Topic = "data-verified"
)

// Topics lists every topic a relay can be started for.
var Topics = []Topic{
	TopicHeaderVerified,
	TopicConfidenceAchieved,
	TopicDataVerified,
}

// ParseTopic validates s as a known topic.
func ParseTopic(s string) (Topic, error) {
	t := Topic(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown topic: %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

func (t Topic) String() string {
	return string(t)
}

// UnmarshalJSON rejects unknown topics.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTopic(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
