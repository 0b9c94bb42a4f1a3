package types

// Mode names reported in Status.
const (
	ModeLight = "light"
	ModeApp   = "app"
)

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	First uint32 `json:"first"`
	Last  uint32 `json:"last"`
}

// BlockCounters are the store derived counters of Status.
type BlockCounters struct {
	Latest    uint32      `json:"latest"`
	Available *BlockRange `json:"available,omitempty"`
}

// Status is a snapshot of configuration, connected node and store state.
// It is built fresh for every query.
type Status struct {
	Modes       []string      `json:"modes"`
	AppID       *uint32       `json:"app_id"`
	GenesisHash string        `json:"genesis_hash"`
	Network     string        `json:"network"`
	Blocks      BlockCounters `json:"blocks"`
}
