package codec

// Zero overwrites b with zeros in place to clear sensitive data from memory.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SecureBytes is a byte buffer that callers must Release on every exit path
// (success or failure) once its contents are no longer needed: password
// bytes, raw master-key secrets, and derived subkey material all flow
// through this type so zeroization can't be forgotten on an error branch.
type SecureBytes struct {
	b []byte
}

// NewSecureBytes takes ownership of b; callers must not retain their own
// reference to it after this call.
func NewSecureBytes(b []byte) *SecureBytes {
	return &SecureBytes{b: b}
}

// Bytes returns the underlying buffer. The returned slice is only valid
// until Release is called.
func (s *SecureBytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Release zeroizes the underlying buffer. Safe to call multiple times and
// on a nil receiver.
func (s *SecureBytes) Release() {
	if s == nil {
		return
	}
	Zero(s.b)
	s.b = nil
}
