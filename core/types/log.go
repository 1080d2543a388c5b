package types

// MaxTopicsPerLog is the maximum number of indexed topics in a single log event.
// EVM LOG0..LOG4 opcodes allow 0-4 topics.
const MaxTopicsPerLog = 4

// Log represents a contract log event. Address, Topics and Data are the
// consensus fields; the rest is derived from the log's position in a block.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte

	BlockNumber uint64
	BlockHash   Hash
	TxIndex     uint
	Index       uint
}
