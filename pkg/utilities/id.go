package utilities

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// SnowflakeNodeFromEnv reads SNOWFLAKE_NODE (default 1).
func SnowflakeNodeFromEnv() (int64, error) {
	v := os.Getenv("SNOWFLAKE_NODE")
	if v == "" {
		return 1, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("SNOWFLAKE_NODE: %w", err)
	}
	return n, nil
}

// InitSnowflake sets the node used by NewSnowflakeID. Node ids run from 0 to 1023.
func InitSnowflake(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewSnowflakeID generates a snowflake ID string. Without InitSnowflake the
// process uses node 1.
func NewSnowflakeID() string {
	nodeMu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	n := node
	nodeMu.Unlock()
	return n.Generate().String()
}
