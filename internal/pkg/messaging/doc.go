// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Kafka, NATS and NSQ are supported, plus an in-process memory broker for
// tests and single-node setups. Use-case code depends only on the interfaces
// in this package.
package messaging
