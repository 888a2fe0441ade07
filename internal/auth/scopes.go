package auth

// OAuth scopes accepted by the device sync API.
const (
	ScopeDeviceSyncWrite = "devicesync:write"
	ScopeDeviceSyncRead  = "devicesync:read"
)
