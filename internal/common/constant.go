// Package common contains shared constants, sentinel errors and small
// helpers used across the journal client packages.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound identity calls.
const AccessTokenHeaderName = "access_token"

// TitleLength is the number of runes of plain-text content that make up a
// draft title.
const TitleLength = 40
