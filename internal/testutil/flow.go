package testutil

// FixedRunIDGenerator returns the same run id every time.
//
// Audit rows and golden output then carry a predictable id instead of a
// UUIDv7. If id is empty, Generate() returns "test-run-default".
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run id generator.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements audit.RunIDGenerator interface.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
