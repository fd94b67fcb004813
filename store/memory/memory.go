package memory

import "github.com/xraph/carebill/store"

var _ store.Store = (*Store)(nil)
