package model

// KeyResponse is the device's keygen reply, kept as opaque bytes. The payload
// is XML in practice but is never parsed on the server side.
type KeyResponse []byte

// String returns the payload as text.
func (k KeyResponse) String() string {
	return string(k)
}
