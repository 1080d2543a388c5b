package trie

import (
	"github.com/eth2030/eclipsemonitor/crypto"
	"github.com/eth2030/eclipsemonitor/rlp"
)

// hasher collapses trie nodes into their hashes or inline encodings.
type hasher struct{}

func newHasher() *hasher {
	return &hasher{}
}

// hash returns the reference a parent stores for n: a hashNode when the
// encoding is at least 32 bytes (or force is set, as for the root), the
// collapsed node itself otherwise. The hash is cached on n.
func (h *hasher) hash(n node, force bool) node {
	if hash, dirty := n.cache(); hash != nil && !dirty {
		return hash
	}
	collapsed := h.hashChildren(n)
	enc := encodeNode(collapsed)
	if len(enc) < 32 && !force {
		return collapsed
	}
	hash := hashNode(crypto.Keccak256(enc))
	if len(enc) < 32 {
		// A forced root small enough to inline must not be served from
		// cache if it is ever referenced as a child.
		return hash
	}
	switch cn := n.(type) {
	case *shortNode:
		cn.flags = nodeFlag{hash: hash}
	case *fullNode:
		cn.flags = nodeFlag{hash: hash}
	}
	return hash
}

// hashChildren returns a copy of n whose children are replaced by their
// references and whose key is compact-encoded.
func (h *hasher) hashChildren(original node) node {
	switch n := original.(type) {
	case *shortNode:
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		if _, ok := n.Val.(valueNode); !ok {
			collapsed.Val = h.hash(n.Val, false)
		}
		return collapsed
	case *fullNode:
		collapsed := n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				collapsed.Children[i] = h.hash(n.Children[i], false)
			}
		}
		return collapsed
	default:
		return n
	}
}

// encodeNode RLP-encodes a collapsed node.
// shortNode => 2-element list [compactKey, val]
// fullNode  => 17-element list [child0..child15, value]
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		return rlp.EncodeList(rlp.EncodeString(n.Key), encodeRef(n.Val))
	case *fullNode:
		items := make([][]byte, 17)
		for i, child := range n.Children {
			items[i] = encodeRef(child)
		}
		return rlp.EncodeList(items...)
	case valueNode:
		return rlp.EncodeString(n)
	default:
		return nil
	}
}

// encodeRef encodes a child as it appears inside its parent: hashes and
// values as strings, inline nodes as their raw list encoding.
func encodeRef(n node) []byte {
	switch n := n.(type) {
	case nil:
		return []byte{0x80}
	case hashNode:
		return rlp.EncodeString(n)
	case valueNode:
		return rlp.EncodeString(n)
	default:
		return encodeNode(n)
	}
}
