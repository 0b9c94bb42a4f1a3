package store

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/orderedcode"
	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"

	"github.com/rollkit/lightbridge/types"
)

const (
	messagesPrefix = "/messages"
	metaPrefix     = "/meta"
)

var (
	latestHeaderKey  = ds.NewKey(metaPrefix + "/latest")
	achievedFirstKey = ds.NewKey(metaPrefix + "/achieved/first")
	achievedLastKey  = ds.NewKey(metaPrefix + "/achieved/last")
)

// MessageStore persists relayed verification messages, one ordered list per
// topic. Reads are safe to run concurrently with the writer.
type MessageStore struct {
	db ds.Batching

	// mtx serializes writers so sequence numbers stay dense
	mtx sync.Mutex
}

// NewMessageStore returns a MessageStore on top of db.
func NewMessageStore(db ds.Batching) *MessageStore {
	return &MessageStore{db: db}
}

// AppendMessage stores msg as the next entry of topic's list.
func (s *MessageStore) AppendMessage(ctx context.Context, topic types.Topic, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("%w: message for topic %s is not valid JSON", types.ErrSerialization, topic)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	seq, err := s.getUint64(ctx, getSequenceKey(topic))
	if err != nil {
		return err
	}

	msgKey, err := getMessageKey(topic, seq)
	if err != nil {
		return err
	}

	batch, err := s.db.Batch(ctx)
	if err != nil {
		return err
	}
	if err := batch.Put(ctx, msgKey, msg); err != nil {
		return err
	}
	if err := batch.Put(ctx, getSequenceKey(topic), uint64ToBytes(seq+1)); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// Messages returns the stored list for topic in insertion order, or nil when
// nothing was recorded for topic yet.
func (s *MessageStore) Messages(ctx context.Context, topic types.Topic) (*types.MessageList, error) {
	recorded, err := s.db.Has(ctx, getSequenceKey(topic))
	if err != nil {
		return nil, err
	}
	if !recorded {
		return nil, nil
	}

	results, err := s.db.Query(ctx, dsq.Query{
		Prefix: messagesPrefix + "/" + topic.String(),
		Orders: []dsq.Order{dsq.OrderByKey{}},
	})
	if err != nil {
		return nil, err
	}
	entries, err := results.Rest()
	if err != nil {
		return nil, err
	}

	list := &types.MessageList{Messages: make([]json.RawMessage, 0, len(entries))}
	for _, entry := range entries {
		list.Messages = append(list.Messages, json.RawMessage(entry.Value))
	}
	return list, nil
}

// GetConfidenceAchievedMessages returns the confidence-achieved list, nil if none recorded.
func GetConfidenceAchievedMessages(ctx context.Context, db ds.Batching) (*types.MessageList, error) {
	return NewMessageStore(db).Messages(ctx, types.TopicConfidenceAchieved)
}

// GetDataVerifiedMessages returns the data-verified list, nil if none recorded.
func GetDataVerifiedMessages(ctx context.Context, db ds.Batching) (*types.MessageList, error) {
	return NewMessageStore(db).Messages(ctx, types.TopicDataVerified)
}

// GetHeaderVerifiedMessages returns the header-verified list, nil if none recorded.
func GetHeaderVerifiedMessages(ctx context.Context, db ds.Batching) (*types.MessageList, error) {
	return NewMessageStore(db).Messages(ctx, types.TopicHeaderVerified)
}

// SetLatestHeader records number as the latest finalized header if it is
// higher than the stored one.
func (s *MessageStore) SetLatestHeader(ctx context.Context, number uint32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	latest, err := s.getUint64(ctx, latestHeaderKey)
	if err != nil {
		return err
	}
	if uint64(number) <= latest {
		return nil
	}
	return s.db.Put(ctx, latestHeaderKey, uint64ToBytes(uint64(number)))
}

// MarkAchieved widens the range of blocks that reached confidence.
func (s *MessageStore) MarkAchieved(ctx context.Context, number uint32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	first, err := s.db.Get(ctx, achievedFirstKey)
	switch {
	case errors.Is(err, ds.ErrNotFound):
		if err := s.db.Put(ctx, achievedFirstKey, uint64ToBytes(uint64(number))); err != nil {
			return err
		}
	case err != nil:
		return err
	case uint64(number) < bytesToUint64(first):
		if err := s.db.Put(ctx, achievedFirstKey, uint64ToBytes(uint64(number))); err != nil {
			return err
		}
	}

	last, err := s.getUint64(ctx, achievedLastKey)
	if err != nil {
		return err
	}
	if uint64(number) > last {
		return s.db.Put(ctx, achievedLastKey, uint64ToBytes(uint64(number)))
	}
	return nil
}

// Counters reads the block counters reported in the status.
func (s *MessageStore) Counters(ctx context.Context) (types.BlockCounters, error) {
	var counters types.BlockCounters

	latest, err := s.getUint64(ctx, latestHeaderKey)
	if err != nil {
		return counters, err
	}
	counters.Latest = uint32(latest)

	first, err := s.db.Get(ctx, achievedFirstKey)
	if errors.Is(err, ds.ErrNotFound) {
		return counters, nil
	}
	if err != nil {
		return counters, err
	}
	last, err := s.getUint64(ctx, achievedLastKey)
	if err != nil {
		return counters, err
	}
	counters.Available = &types.BlockRange{
		First: uint32(bytesToUint64(first)),
		Last:  uint32(last),
	}
	return counters, nil
}

// getUint64 returns the value at key, zero when the key is missing.
func (s *MessageStore) getUint64(ctx context.Context, key ds.Key) (uint64, error) {
	raw, err := s.db.Get(ctx, key)
	if errors.Is(err, ds.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bytesToUint64(raw), nil
}

func getSequenceKey(topic types.Topic) ds.Key {
	return ds.NewKey(metaPrefix + "/" + topic.String() + "/seq")
}

// getMessageKey encodes seq with orderedcode; hex keeps the byte order and
// yields a valid datastore key.
func getMessageKey(topic types.Topic, seq uint64) (ds.Key, error) {
	encoded, err := orderedcode.Append(nil, seq)
	if err != nil {
		return ds.Key{}, err
	}
	return ds.NewKey(messagesPrefix + "/" + topic.String() + "/" + hex.EncodeToString(encoded)), nil
}

func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesToUint64(buf []byte) uint64 {
	if len(buf) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(buf)
}
