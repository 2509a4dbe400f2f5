package otterreceiver

import "crypto/sha256"

// Synthesize OTel trace and span IDs from the engine's own identifiers
// for the OTel sink (sink_otel.go). OTel requires random-looking but
// process-stable 16-byte trace IDs and 8-byte span IDs; since the engine
// already hands out monotonic, process-unique thread/parallel/task IDs,
// hashing them is enough to get a stable, collision-resistant identifier
// without needing a random number generator.

// deriveTraceID returns a 16-byte trace ID stable for every span emitted
// while tracing locationID, so that every region entered/left on the
// same thread lands in the same OTel trace.
func deriveTraceID(locationID uint64) (tid [16]byte) {
	hash := sha256.Sum256(uint64Bytes(locationID))
	copy(tid[:], hash[0:16])
	return tid
}

// deriveSpanID returns an 8-byte span ID unique to one region's
// enter/leave pair on one location, derived from both the location and
// the region ref so that two locations entering region refs that happen
// to collide numerically (refs are scoped to an IDSource, not global
// across every possible source) never collide here either.
func deriveSpanID(locationID, regionRef uint64) (spid [8]byte) {
	hash := sha256.Sum256(append(uint64Bytes(locationID), uint64Bytes(regionRef)...))
	copy(spid[:], hash[16:24])
	return spid
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
