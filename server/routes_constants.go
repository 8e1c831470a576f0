package server

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	// RouteToken is the inbound token-exchange endpoint.
	RouteToken = "/iam/openid-connect/v1/token"
)
