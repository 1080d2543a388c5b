package trie

// Hex-prefix (HP) encoding as specified in the Ethereum Yellow Paper, Appendix C.
//
// Nibble sequences are encoded with a prefix that encodes both the parity of
// the sequence length and a "terminator" flag that distinguishes leaf nodes
// from extension nodes.
//
// Hex nibble representation uses values 0x0-0xf for data nibbles and 0x10
// (the terminator) to mark the end of a leaf key.

const terminatorByte = 16

// hexToCompact converts a hex nibble sequence (with possible terminator) to
// compact (hex-prefix) encoding per the Yellow Paper.
//
// The high nibble of the first byte encodes flags:
//   - bit 1 (0x20): set if the key is a leaf (terminator present)
//   - bit 0 (0x10): set if the nibble count is odd
//
// If the nibble count is odd, the low nibble of the first byte is the first
// nibble. If even, the low nibble is zero and acts as padding.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = 1
		hex = hex[:len(hex)-1] // strip terminator for encoding
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5 // set leaf flag in bit 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4 // set odd-length flag in bit 4
		buf[0] |= hex[0] // first nibble goes in low nibble of first byte
		hex = hex[1:]
	}
	decodeNibbles(hex, buf[1:])
	return buf
}

// keybytesToHex converts a raw byte key to a hex nibble sequence, appending
// a terminator nibble (0x10) at the end.
func keybytesToHex(str []byte) []byte {
	l := len(str)*2 + 1
	nibbles := make([]byte, l)
	for i, b := range str {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[l-1] = terminatorByte
	return nibbles
}

// decodeNibbles packs pairs of nibbles into bytes.
func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	var i, length int
	if len(a) < len(b) {
		length = len(a)
	} else {
		length = len(b)
	}
	for ; i < length; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// hasTerm returns true if the hex nibble sequence ends with the terminator.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminatorByte
}
