// Package trie implements an in-memory Merkle-Patricia trie, enough to
// recompute transaction and receipt roots from block contents.
package trie

import (
	"bytes"
	"errors"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// ErrEmptyValue is returned by Put for a zero-length value; such keys are
// absent by definition.
var ErrEmptyValue = errors.New("trie: empty value")

// emptyRoot is the root hash of a trie with no entries.
var emptyRoot = types.EmptyRootHash

// Trie is an in-memory Merkle-Patricia trie. It is not safe for concurrent use.
type Trie struct {
	root node
	h    *hasher
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{h: newHasher()}
}

// Put associates value with key.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return ErrEmptyValue
	}
	_, n := t.insert(t.root, keybytesToHex(key), valueNode(bytes.Clone(value)))
	t.root = n
	return nil
}

// Get returns the value stored under key.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	n := t.root
	k := keybytesToHex(key)
	for {
		switch cur := n.(type) {
		case nil:
			return nil, false
		case valueNode:
			if len(k) == 0 {
				return bytes.Clone(cur), true
			}
			return nil, false
		case *shortNode:
			if len(k) < len(cur.Key) || !bytes.Equal(cur.Key, k[:len(cur.Key)]) {
				return nil, false
			}
			k = k[len(cur.Key):]
			n = cur.Val
		case *fullNode:
			if len(k) == 0 {
				return nil, false
			}
			n = cur.Children[k[0]]
			k = k[1:]
		default:
			return nil, false
		}
	}
}

// Hash returns the root hash of the trie.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		return emptyRoot
	}
	hashed := t.h.hash(t.root, true)
	return types.BytesToHash(hashed.(hashNode))
}

// insert returns whether the subtree changed and its new root. key is a hex
// nibble sequence ending in the terminator.
func (t *Trie) insert(n node, key []byte, value node) (bool, node) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytes.Equal(v, value.(valueNode)), value
		}
		return true, value
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			dirty, nn := t.insert(n.Val, key[matchlen:], value)
			if !dirty {
				return false, n
			}
			return true, &shortNode{Key: n.Key, Val: nn, flags: newFlag()}
		}
		// Keys diverge inside this node: branch at the first differing nibble.
		branch := &fullNode{flags: newFlag()}
		_, branch.Children[n.Key[matchlen]] = t.insert(nil, n.Key[matchlen+1:], n.Val)
		_, branch.Children[key[matchlen]] = t.insert(nil, key[matchlen+1:], value)
		if matchlen == 0 {
			return true, branch
		}
		return true, &shortNode{Key: key[:matchlen], Val: branch, flags: newFlag()}

	case *fullNode:
		dirty, nn := t.insert(n.Children[key[0]], key[1:], value)
		if !dirty {
			return false, n
		}
		n = n.copy()
		n.flags = newFlag()
		n.Children[key[0]] = nn
		return true, n

	case nil:
		return true, &shortNode{Key: key, Val: value, flags: newFlag()}

	default:
		panic("trie: unexpected node type in insert")
	}
}
