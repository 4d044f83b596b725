package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// snowflakeEpoch is 2025-12-01T00:00:00Z in milliseconds.
const snowflakeEpoch int64 = 1764547200000

// maxNodeID is the largest node id that fits the 10 node bits.
const maxNodeID = 1<<10 - 1

// Snowflake generates numeric IDs using the Snowflake algorithm. Promoted
// merge names carry one so that two promotions in the same second never
// collide.
type Snowflake struct {
	node   *snowflake.Node
	nodeID int64
}

func randomNodeID() (int64, error) {
	var n uint16
	if err := binary.Read(rand.Reader, binary.BigEndian, &n); err != nil {
		return 0, err
	}
	return int64(n) & maxNodeID, nil
}

// NewSnowflake builds a generator for nodeID. A negative nodeID picks a random
// one, which is enough for a single replica; fixed ids avoid collisions when
// several replicas share a bucket.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 {
		var err error
		if nodeID, err = randomNodeID(); err != nil {
			return nil, fmt.Errorf("random snowflake node: %w", err)
		}
	}
	if nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake node %d out of range 0..%d", nodeID, maxNodeID)
	}

	snowflake.Epoch = snowflakeEpoch

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node, nodeID: nodeID}, nil
}

// NodeID reports the node id embedded in generated ids.
func (s *Snowflake) NodeID() int64 {
	return s.nodeID
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
