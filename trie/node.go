package trie

type node interface {
	cache() (hashNode, bool)
}

type (
	// fullNode is a branch: 16 children keyed by nibble plus a value slot.
	fullNode struct {
		Children [17]node
		flags    nodeFlag
	}
	// shortNode is a leaf when Key ends with the terminator, an extension otherwise.
	shortNode struct {
		Key   []byte
		Val   node
		flags nodeFlag
	}
	hashNode  []byte
	valueNode []byte
)

// nodeFlag caches the hash of a node until it is modified.
type nodeFlag struct {
	hash  hashNode
	dirty bool
}

func newFlag() nodeFlag { return nodeFlag{dirty: true} }

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

func (n *fullNode) copy() *fullNode   { c := *n; return &c }
func (n *shortNode) copy() *shortNode { c := *n; return &c }
