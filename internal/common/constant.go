// Package common contains shared constants and sentinel errors used across
// taskkeeper components.
package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key carrying
// the bearer token on inbound requests.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"
