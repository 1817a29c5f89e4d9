// Package infra holds the technical adapters: durable stores, the MQTT
// commander, metrics exporters and the zerolog logger. Adapters depend
// only on the contracts defined under core.
package infra
