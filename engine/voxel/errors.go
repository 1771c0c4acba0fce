package voxel

import (
	"fmt"

	"github.com/pkg/errors"
)

// Invariants checked before a chunk is meshed.
const (
	InvariantChunkSize      = "chunk size"
	InvariantVolumeSize     = "volume size"
	InvariantBoundsSize     = "height bounds size"
	InvariantBoundsMissing  = "height bounds missing"
	InvariantBoundsRange    = "height bounds range"
	InvariantBoundsStale    = "height bounds consistency"
	InvariantCoordinate     = "coordinate in chunk"
	InvariantGenerationSame = "volume unchanged during meshing"
)

// ContractViolation reports upstream data that breaks the mesher's input contract.
// It is never recovered from inside the mesher: the chunk produces no faces.
type ContractViolation struct {
	Chunk     Int3
	Invariant string
	Detail    string
}

func (c *ContractViolation) Error() string {
	return fmt.Sprintf("chunk %s violates %s: %s", c.Chunk.ToString(), c.Invariant, c.Detail)
}

func newViolation(chunk Int3, invariant string, format string, args ...any) error {
	return errors.WithStack(&ContractViolation{Chunk: chunk, Invariant: invariant, Detail: fmt.Sprintf(format, args...)})
}

// AsContractViolation unwraps err down to a *ContractViolation.
func AsContractViolation(err error) (*ContractViolation, bool) {
	var cv *ContractViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}
