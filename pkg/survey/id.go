package survey

import "strings"

// idAlphabet is the fixed 62-symbol alphabet used for public survey IDs. The
// shuffled order keeps sequential counter values from producing obviously
// sequential IDs, which is a convenience, not a security boundary.
const idAlphabet = "Yp8oyU0HhFQiPz9KZ1SBGvdTqCM6XDnImkbxNOVLAsEcf5uRe347Wrtlj2awgJ"

const minIDLength = 4

// encodeID encodes a counter value as a positional base-62 string, most
// significant digit first, left-padded to the minimum length with the
// alphabet's zero symbol. Encoding is strictly monotonic in n, so IDs are
// never reused as long as the counter only grows.
func encodeID(n int64) string {
	var digits []byte
	for n > 0 {
		digits = append(digits, idAlphabet[n%62])
		n /= 62
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	id := string(digits)
	if len(id) < minIDLength {
		id = strings.Repeat(string(idAlphabet[0]), minIDLength-len(id)) + id
	}
	return id
}
