// Package serializer provides message serialization for the dRel RPC system.
// It defines a common interface and two implementations for converting messages
// between client and server components.
//
//   - jsonSerializerImpl: JSON encoding. Message types are written as their names,
//     so requests can be written by hand (e.g. with curl) and responses are readable.
//
//   - gobSerializerImpl: Go's gob encoding. Smaller payloads for batches and
//     cell lists, but only usable by Go clients.
//
// All serializer implementations are stateless and safe for concurrent use.
//
// Usage:
//
//	s, err := serializer.New("json")
//	data, err := s.Serialize(message)
//	// ... send data ...
//	var received common.Message
//	err = s.Deserialize(receivedData, &received)
package serializer
