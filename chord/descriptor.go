package chord

import (
	"fmt"
	"net"
	"strconv"
)

// Descriptor identifies a node on the ring: its routable address and the
// id derived from hashing that address into the ring's id space. It is the
// value exchanged over the wire by every RPC in the NodeClient surface.
type Descriptor struct {
	IP   string
	Port int
	ID   uint64
	URI  string
}

// Equal reports whether two descriptors name the same ring member. Only the
// id is compared: a node's advertised address can change across restarts
// while its id (derived from the address it was created with) stays fixed
// for the lifetime of the descriptor.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.ID == other.ID
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%d", d.URI, d.ID)
}

// HashFunc reduces an address to a 64-bit digest before it is taken modulo
// the ring size. DefaultHash is the production choice; tests may substitute
// a deterministic stub to pin down exact ring layouts.
type HashFunc func([]byte) uint64

// NewDescriptor builds the Descriptor for address (a "host:port" string),
// deriving its ring id as H(address) mod 2^bits.
func NewDescriptor(address string, bits uint, hash HashFunc) (Descriptor, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return Descriptor{}, fmt.Errorf("chord: parsing address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Descriptor{}, fmt.Errorf("chord: parsing port in %q: %w", address, err)
	}
	id := hash([]byte(address)) % modulus(bits)
	return Descriptor{IP: host, Port: port, ID: id, URI: address}, nil
}
