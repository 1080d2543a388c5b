package trie

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/eth2030/eclipsemonitor/core/types"
)

func TestEmptyTrie(t *testing.T) {
	tr := New()
	if got := tr.Hash(); got != types.EmptyRootHash {
		t.Fatalf("empty trie hash = %s, want %s", got.Hex(), types.EmptyRootHash.Hex())
	}
}

func TestInsertKnownRoots(t *testing.T) {
	tests := []struct {
		name string
		kvs  [][2]string
		want string
	}{
		{
			name: "shared prefixes",
			kvs:  [][2]string{{"doe", "reindeer"}, {"dog", "puppy"}, {"dogglesworth", "cat"}},
			want: "8aad789dff2f538bca5d8ea56e8abe10f4c7ba3a5dea95fea4cd6e7c3a1168d3",
		},
		{
			name: "single long value",
			kvs:  [][2]string{{"A", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}},
			want: "d23786fb4a010da3ce639d66d5e904a11dbc02746d1ce25029e53290cabf28ab",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for _, kv := range tt.kvs {
				if err := tr.Put([]byte(kv[0]), []byte(kv[1])); err != nil {
					t.Fatalf("Put(%q): %v", kv[0], err)
				}
			}
			want := types.HexToHash(tt.want)
			if got := tr.Hash(); got != want {
				t.Fatalf("root = %s, want %s", got.Hex(), want.Hex())
			}
		})
	}
}

func TestInsertOrderIndependent(t *testing.T) {
	a, b := New(), New()
	for i := 0; i < 64; i++ {
		a.Put([]byte(fmt.Sprintf("key-%d", i)), []byte(fmt.Sprintf("val-%d", i)))
	}
	for i := 63; i >= 0; i-- {
		b.Put([]byte(fmt.Sprintf("key-%d", i)), []byte(fmt.Sprintf("val-%d", i)))
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("root depends on insertion order: %s vs %s", a.Hash().Hex(), b.Hash().Hex())
	}
}

func TestHashStableAcrossInserts(t *testing.T) {
	// Hashing between inserts caches node hashes; the final root must match
	// a trie that was only hashed once.
	a, b := New(), New()
	for i := 0; i < 40; i++ {
		k, v := []byte{byte(i), byte(i * 7)}, []byte{byte(i + 1)}
		a.Put(k, v)
		a.Hash()
		b.Put(k, v)
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("intermediate hashing changed the root")
	}
}

func TestOverwrite(t *testing.T) {
	tr := New()
	tr.Put([]byte("dog"), []byte("puppy"))
	before := tr.Hash()
	tr.Put([]byte("dog"), []byte("hound"))
	if tr.Hash() == before {
		t.Fatal("root unchanged after overwrite")
	}
	tr.Put([]byte("dog"), []byte("puppy"))
	if tr.Hash() != before {
		t.Fatal("root did not return after restoring value")
	}
}

func TestGet(t *testing.T) {
	tr := New()
	tr.Put([]byte("doe"), []byte("reindeer"))
	tr.Put([]byte("dog"), []byte("puppy"))
	tr.Put([]byte("dogglesworth"), []byte("cat"))

	for k, want := range map[string]string{"doe": "reindeer", "dog": "puppy", "dogglesworth": "cat"} {
		got, ok := tr.Get([]byte(k))
		if !ok || !bytes.Equal(got, []byte(want)) {
			t.Fatalf("Get(%q) = %q, %v; want %q", k, got, ok, want)
		}
	}
	for _, k := range []string{"do", "dogg", "cat", ""} {
		if _, ok := tr.Get([]byte(k)); ok {
			t.Fatalf("Get(%q) found a value", k)
		}
	}
}

func TestPutEmptyValue(t *testing.T) {
	tr := New()
	if err := tr.Put([]byte("k"), nil); err != ErrEmptyValue {
		t.Fatalf("Put(nil) err = %v, want ErrEmptyValue", err)
	}
	if tr.Hash() != types.EmptyRootHash {
		t.Fatal("empty value modified the trie")
	}
}
