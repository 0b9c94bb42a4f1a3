package types

import (
	"errors"
	"time"
)

var (
	errMissingHash       = errors.New("header hash is missing")
	errMissingConfidence = errors.New("confidence is not available")
	errMissingAppData    = errors.New("app data is not decoded")
)

// HeaderEvent is emitted for every finalized header received from the full node.
type HeaderEvent struct {
	Number         uint32
	Hash           string
	ParentHash     string
	StateRoot      string
	ExtrinsicsRoot string
	ReceivedAt     time.Time
}

var _ Publishable = HeaderEvent{}

func (HeaderEvent) Topic() Topic { return TopicHeaderVerified }

func (e HeaderEvent) ToPublishMessage() (PublishMessage, error) {
	if e.Hash == "" {
		return PublishMessage{}, errMissingHash
	}
	return PublishMessage{
		Topic: TopicHeaderVerified,
		Message: HeaderMessage{
			Hash:           e.Hash,
			ParentHash:     e.ParentHash,
			Number:         e.Number,
			StateRoot:      e.StateRoot,
			ExtrinsicsRoot: e.ExtrinsicsRoot,
			ReceivedAt:     e.ReceivedAt.UnixMilli(),
		},
	}, nil
}

// BlockVerified is emitted once sampling of a block finished. Confidence is
// nil when sampling did not produce a score.
type BlockVerified struct {
	Number     uint32
	Confidence *float64
}

var _ Publishable = BlockVerified{}

func (BlockVerified) Topic() Topic { return TopicConfidenceAchieved }

func (e BlockVerified) ToPublishMessage() (PublishMessage, error) {
	if e.Confidence == nil {
		return PublishMessage{}, errMissingConfidence
	}
	return PublishMessage{
		Topic: TopicConfidenceAchieved,
		Message: ConfidenceMessage{
			BlockNumber: e.Number,
			Confidence:  *e.Confidence,
		},
	}, nil
}

// AppDataVerified carries the application transactions of a verified block.
// Extrinsics is nil when the block data could not be decoded.
type AppDataVerified struct {
	Number     uint32
	AppID      uint32
	Extrinsics [][]byte
}

var _ Publishable = AppDataVerified{}

func (AppDataVerified) Topic() Topic { return TopicDataVerified }

func (e AppDataVerified) ToPublishMessage() (PublishMessage, error) {
	if e.Extrinsics == nil {
		return PublishMessage{}, errMissingAppData
	}
	txs := make([]DataTransaction, 0, len(e.Extrinsics))
	for _, ext := range e.Extrinsics {
		txs = append(txs, DataTransaction{Data: ext})
	}
	return PublishMessage{
		Topic: TopicDataVerified,
		Message: DataMessage{
			BlockNumber:      e.Number,
			DataTransactions: txs,
		},
	}, nil
}
