package mocks

const (
	// MockFullNodeWS is the address of the mock full node
	MockFullNodeWS = "ws://127.0.0.1:9944"
	// MockGenesisHash is the genesis hash reported by the mock full node
	MockGenesisHash = "0x6f09966420b2608d1947ccfb0f2a362450d1fc7fd902c29b67c906eaa965a7ae"
	// MockSystemVersion is the system version reported by the mock full node
	MockSystemVersion = "1.6.3-d7aa1b8"
	// MockSpecName is the runtime name reported by the mock full node
	MockSpecName = "data-avail"
	// MockSpecVersion is the runtime version reported by the mock full node
	MockSpecVersion = 9
)
