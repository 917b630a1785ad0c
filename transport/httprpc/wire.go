package httprpc

import "go.chordring.dev/chordring/chord"

// descriptorDTO is the wire representation of chord.Descriptor. Kept as a
// separate type (rather than adding json tags to chord.Descriptor itself)
// so the chord package stays transport-agnostic.
type descriptorDTO struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
	ID   uint64 `json:"id"`
	URI  string `json:"uri"`
}

func toDTO(d chord.Descriptor) descriptorDTO {
	return descriptorDTO{IP: d.IP, Port: d.Port, ID: d.ID, URI: d.URI}
}

func fromDTO(d descriptorDTO) chord.Descriptor {
	return chord.Descriptor{IP: d.IP, Port: d.Port, ID: d.ID, URI: d.URI}
}

func toDTOList(list []chord.Descriptor) []descriptorDTO {
	out := make([]descriptorDTO, len(list))
	for i, d := range list {
		out[i] = toDTO(d)
	}
	return out
}

func fromDTOList(list []descriptorDTO) []chord.Descriptor {
	out := make([]chord.Descriptor, len(list))
	for i, d := range list {
		out[i] = fromDTO(d)
	}
	return out
}

type notifyRequest struct {
	Predecessor descriptorDTO `json:"predecessor"`
}

type notifyPredecessorLeavingRequest struct {
	Node           descriptorDTO  `json:"node"`
	NewPredecessor *descriptorDTO `json:"new_predecessor,omitempty"`
}

type notifySuccessorLeavingRequest struct {
	Node       descriptorDTO   `json:"node"`
	Successors []descriptorDTO `json:"successors"`
}

type errorBody struct {
	Error string `json:"error"`
}
