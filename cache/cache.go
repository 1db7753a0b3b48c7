// Package cache provides Cache backends for the preference store.
package cache

import (
	"github.com/CreativeUnicorns/addonprefs"
)

var (
	_ addonprefs.Cache = (*MemoryCache)(nil)
	_ addonprefs.Cache = (*RedisCache)(nil)
)
