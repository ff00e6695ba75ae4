package legacycrypt

import (
	"errors"
	"fmt"
)

var (
	// ErrLength means the ciphertext is empty or not a whole number of blocks.
	ErrLength = errors.New("legacycrypt: ciphertext length is not a positive multiple of the block size")
	// ErrPadding means the decrypted padding does not fit the buffer.
	ErrPadding = errors.New("legacycrypt: corrupt padding")
	// ErrIVSize means the IV is not exactly one block.
	ErrIVSize = errors.New("legacycrypt: iv must be one block long")
)

// Padding selects how the final block is filled.
type Padding int

const (
	// PadNone requires block-aligned input.
	PadNone Padding = iota
	// PadFixedByte always appends 1..BlockSize bytes, each holding the pad
	// length.
	PadFixedByte
)

// CBC runs a BlockCipher in cipher block chaining mode one byte at a time.
// state holds the IV and then the previous ciphertext block; pos is the
// offset inside the current block. The interleaving of XOR, block operation
// and chaining matches the files written by Presto and must not be changed
// to a block-at-a-time loop.
type CBC struct {
	block BlockCipher
	pad   Padding
	key   []byte
	state []byte
	pos   int
}

// NewCBC returns a chaining mode over block. SetKey and SetIV must be called
// before use.
func NewCBC(block BlockCipher, pad Padding) *CBC {
	return &CBC{
		block: block,
		pad:   pad,
		state: make([]byte, block.BlockSize()),
	}
}

// SetIV copies iv into the chaining state and rewinds to a block boundary.
func (c *CBC) SetIV(iv []byte) error {
	if len(iv) != len(c.state) {
		return fmt.Errorf("%w: got %d", ErrIVSize, len(iv))
	}
	copy(c.state, iv)
	c.pos = 0
	return nil
}

// SetKey stores the key; it is installed into the block cipher on each call
// to Encrypt or Decrypt.
func (c *CBC) SetKey(key []byte) error {
	if _, err := expandKey(key); err != nil {
		return err
	}
	Wipe(c.key)
	c.key = append([]byte(nil), key...)
	return nil
}

// Reset wipes the key and chaining state.
func (c *CBC) Reset() {
	Wipe(c.key)
	c.key = nil
	Wipe(c.state)
	c.pos = 0
}

// EncryptedLength returns the ciphertext length for n plaintext bytes.
func (c *CBC) EncryptedLength(n int) int {
	bs := len(c.state)
	if c.pad == PadFixedByte {
		return n + (bs - n%bs)
	}
	return n
}

// Encrypt returns the padded ciphertext of src.
func (c *CBC) Encrypt(src []byte) ([]byte, error) {
	if c.key == nil {
		return nil, ErrNoKey
	}
	bs := len(c.state)
	if c.pad == PadNone && len(src)%bs != 0 {
		return nil, ErrLength
	}
	if err := c.block.SetEncryptKey(c.key); err != nil {
		return nil, err
	}
	target := c.EncryptedLength(len(src))
	padByte := byte(target - len(src))
	out := make([]byte, target)
	for i := 0; i < target; i++ {
		in := padByte
		if i < len(src) {
			in = src[i]
		}
		c.state[c.pos] ^= in
		c.pos++
		if c.pos == bs {
			c.pos = 0
			start := i + 1 - bs
			if err := c.block.EncryptBlock(out[start:start+bs], c.state); err != nil {
				return nil, err
			}
			copy(c.state, out[start:start+bs])
		}
	}
	return out, nil
}

// Decrypt decrypts src into dst, which must be at least as long. The padding
// is left in place; see DecryptedLength.
func (c *CBC) Decrypt(dst, src []byte) error {
	bs := len(c.state)
	if len(src) == 0 || len(src)%bs != 0 || len(dst) < len(src) {
		return ErrLength
	}
	if c.key == nil {
		return ErrNoKey
	}
	if err := c.block.SetDecryptKey(c.key); err != nil {
		return err
	}
	if &dst[0] == &src[0] {
		src = append([]byte(nil), src...)
	}
	for i := range src {
		if c.pos == 0 {
			if err := c.block.DecryptBlock(dst[i:i+bs], src[i:i+bs]); err != nil {
				return err
			}
		}
		dst[i] ^= c.state[c.pos]
		c.state[c.pos] = src[i]
		c.pos++
		if c.pos == bs {
			c.pos = 0
		}
	}
	return nil
}

// DecryptedLength returns the plaintext length of a decrypted buffer.
func (c *CBC) DecryptedLength(buf []byte) (int, error) {
	if c.pad == PadNone {
		return len(buf), nil
	}
	if len(buf) == 0 {
		return 0, ErrPadding
	}
	n := int(buf[len(buf)-1])
	if n > len(buf) {
		return 0, fmt.Errorf("%w: pad of %d in %d bytes", ErrPadding, n, len(buf))
	}
	return len(buf) - n, nil
}
