// Package redisstore backs workflow static data and inbound delivery claims
// with Redis.
package redisstore
