// Package auth verifies the access tokens realtime clients present.
//
// Tokens are HS256 JWTs issued elsewhere; this package only checks them.
// Each token names its holder with two claims, sub_id (integer) and
// sub_type ("user" or "agent"), which map onto realtime.Subject.
// GenerateToken exists for tests and local tooling.
package auth
