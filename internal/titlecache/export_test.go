package titlecache

// SetLockWait installs fn to run whenever a caller is about to wait for the
// refresh lock.
func SetLockWait(c *Cache, fn func()) {
	c.lockWait = fn
}
