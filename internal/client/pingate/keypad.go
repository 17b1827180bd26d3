package pingate

import "errors"

var (
	ErrNotDigit  = errors.New("only digits are accepted")
	ErrInputFull = errors.New("pin input is full")
)

// Keypad buffers PIN digits as they are typed. Keys past PinLength are
// rejected instead of shifting or truncating earlier digits.
type Keypad struct {
	digits []byte
}

func (k *Keypad) Press(r rune) error {
	if r < '0' || r > '9' {
		return ErrNotDigit
	}
	if len(k.digits) >= PinLength {
		return ErrInputFull
	}
	k.digits = append(k.digits, byte(r))
	return nil
}

func (k *Keypad) Backspace() {
	if len(k.digits) > 0 {
		k.digits = k.digits[:len(k.digits)-1]
	}
}

func (k *Keypad) Full() bool { return len(k.digits) == PinLength }

func (k *Keypad) Len() int { return len(k.digits) }

func (k *Keypad) Reset() { k.digits = k.digits[:0] }

// Submit enters the buffered digits into g and clears the pad.
func (k *Keypad) Submit(g *Gate) (State, error) {
	pin := string(k.digits)
	k.Reset()
	return g.Enter(pin)
}
