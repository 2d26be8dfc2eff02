// Package modelstore persists parsed polygenic score models.
package modelstore

import (
	"context"

	"github.com/carbocation/pgsinherit/pgs"
)

// Store is where registered models live. Get of an unknown id returns an error
// wrapping pgs.ErrModelNotFound. Implementations must be safe for concurrent
// use.
type Store interface {
	Get(ctx context.Context, id string) (*pgs.Model, error)
	Put(ctx context.Context, model *pgs.Model) error
}
