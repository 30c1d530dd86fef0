package cipher

import "log"

// cryptMethod maps a cipher name to its constructor and the key size the
// passphrase is truncated to (0, or a passphrase shorter than that, means
// "use the whole supplied key").
type cryptMethod struct {
	keySize int
	build   func(key []byte) (BlockCrypt, error)
}

// methods is a lookup table for supported cipher names, pointed at this
// package's own ciphers.
var methods = map[string]cryptMethod{
	"none":     {0, func(key []byte) (BlockCrypt, error) { return noneCrypt{}, nil }},
	"xor":      {0, func(key []byte) (BlockCrypt, error) { return &xorCrypt{key: key}, nil }},
	"aes":      {16, newAES},
	"aes-128":  {16, newAES},
	"aes-192":  {24, newAES},
	"aes-256":  {32, newAES},
	"3des":     {24, newTripleDES},
	"blowfish": {0, newBlowfish},
	"twofish":  {0, newTwofish},
	"cast5":    {16, newCast5},
	"tea":      {16, newTEA},
	"xtea":     {16, newXTEA},
	"salsa20":  {0, func(key []byte) (BlockCrypt, error) { return newSalsa20Crypt(key), nil }},
}

// SelectBlockCrypt translates a human readable cipher name into the concrete
// BlockCrypt implementation, falling back to AES on an unknown name or a
// failed construction. It reports the effective cipher name so callers can
// log the final choice.
func SelectBlockCrypt(method string, pass []byte) (BlockCrypt, string) {
	m, ok := methods[method]
	if !ok {
		return fallbackAES(pass)
	}

	key := pass
	if m.keySize > 0 && len(pass) >= m.keySize {
		key = pass[:m.keySize]
	}
	block, err := m.build(key)
	if err != nil {
		log.Printf("cipher: failed to create %s cipher: %v, falling back to aes", method, err)
		return fallbackAES(pass)
	}
	return block, method
}

func fallbackAES(pass []byte) (BlockCrypt, string) {
	key := pass
	if len(pass) >= 16 {
		key = pass[:16]
	} else {
		padded := make([]byte, 16)
		copy(padded, pass)
		key = padded
	}
	block, err := newAES(key)
	if err != nil {
		log.Printf("cipher: failed to create fallback aes cipher: %v", err)
	}
	return block, "aes"
}
