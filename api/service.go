package api

import (
	"net/http"

	gorillarpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/rollkit/lightbridge/types"
)

const serviceName = "bridge"

// getRPCHandler returns the JSON-RPC 2.0 handler exposing the bridge queries.
func getRPCHandler(backend Backend) (http.Handler, error) {
	s := gorillarpc.NewServer()
	s.RegisterCodec(json2.NewCodec(), "application/json")
	err := s.RegisterService(&service{backend: backend}, serviceName)
	return s, err
}

type service struct {
	backend Backend
}

// StatusArgs are the (empty) arguments of bridge.Status.
type StatusArgs struct{}

// MessageListArgs are the arguments of bridge.MessageList.
type MessageListArgs struct {
	Topic types.Topic `json:"topic"`
}

// Status returns the light client status.
func (s *service) Status(r *http.Request, args *StatusArgs, reply *types.Status) error {
	status, err := s.backend.Status(r.Context())
	if err != nil {
		return err
	}
	*reply = status
	return nil
}

// MessageList returns the stored messages of a topic.
func (s *service) MessageList(r *http.Request, args *MessageListArgs, reply *types.MessageList) error {
	list, err := s.backend.MessageList(r.Context(), args.Topic)
	if err != nil {
		return err
	}
	*reply = *list
	return nil
}
