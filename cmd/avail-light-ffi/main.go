// Command avail-light-ffi builds the C shared library of the light client:
//
//	go build -buildmode=c-shared -o libavail_light.so ./cmd/avail-light-ffi
//
// Strings passed in are taken over and freed by the library; the host must
// not use them after the call. The string returned by a call stays valid
// until the next call into the library and must not be freed by the host.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <string.h>
#include <stdlib.h>

typedef void (*message_callback)(const char *topic, const char *payload);
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/rollkit/lightbridge/bridge"
	"github.com/rollkit/lightbridge/relay"
)

var (
	resultMtx sync.Mutex
	result    *C.char
)

// returnString replaces the previously returned string with s.
func returnString(s string) *C.char {
	resultMtx.Lock()
	defer resultMtx.Unlock()
	if result != nil {
		C.free(unsafe.Pointer(result))
	}
	result = C.CString(s)
	return result
}

// take copies a NUL-terminated host string and frees it.
func take(p *C.char) []byte {
	if p == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoBytes(unsafe.Pointer(p), C.int(C.strlen(p)))
}

//export start_light_node_with_callbacks
func start_light_node_with_callbacks(cfg *C.char, cb C.message_callback) C.bool {
	var notifier relay.Notifier
	if cb != nil {
		notifier = callbackNotifier{cb: cb}
	}
	return C.bool(bridge.Default().StartLightNodeWithCallbacks(take(cfg), notifier))
}

//export stop_light_node
func stop_light_node() C.bool {
	return C.bool(bridge.Default().StopLightNode())
}

//export submit_transaction
func submit_transaction(privateKey *C.char, appID C.uint32_t, cfg *C.char, transaction *C.char) *C.char {
	key, cfgBuf, txBuf := take(privateKey), take(cfg), take(transaction)
	out := bridge.Default().SubmitTransactionRaw(key, uint32(appID), cfgBuf, txBuf)
	for i := range key {
		key[i] = 0
	}
	return returnString(out)
}

//export get_status_v2
func get_status_v2(cfg *C.char) *C.char {
	return returnString(bridge.Default().GetStatusV2(take(cfg)))
}

//export get_confidence_message_list
func get_confidence_message_list(cfg *C.char) *C.char {
	return returnString(bridge.Default().GetConfidenceMessageList(take(cfg)))
}

//export get_data_verified_message_list
func get_data_verified_message_list(cfg *C.char) *C.char {
	return returnString(bridge.Default().GetDataVerifiedMessageList(take(cfg)))
}

//export get_header_verified_message_list
func get_header_verified_message_list(cfg *C.char) *C.char {
	return returnString(bridge.Default().GetHeaderVerifiedMessageList(take(cfg)))
}

func main() {}
