package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// access token on inbound requests.
const AuthorizationHeaderName = "Authorization"
