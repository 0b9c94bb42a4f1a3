package main

/*
#include <stdlib.h>

typedef void (*message_callback)(const char *topic, const char *payload);

static inline void invoke_callback(message_callback cb, const char *topic, const char *payload) {
	cb(topic, payload);
}
*/
import "C"

import (
	"unsafe"

	"github.com/rollkit/lightbridge/relay"
)

// callbackNotifier hands every relayed message to a host function pointer.
// Both strings are freed as soon as the callback returns.
type callbackNotifier struct {
	cb C.message_callback
}

var _ relay.Notifier = callbackNotifier{}

func (n callbackNotifier) Notify(topic, payload []byte) {
	cTopic := C.CString(string(topic))
	defer C.free(unsafe.Pointer(cTopic))
	cPayload := C.CString(string(payload))
	defer C.free(unsafe.Pointer(cPayload))

	C.invoke_callback(n.cb, cTopic, cPayload)
}
