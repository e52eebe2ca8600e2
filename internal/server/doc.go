// Package server wires the HTTP surface: the chat and monitor WebSocket
// endpoints, the served pages, health and metrics. It terminates inbound
// connections and forwards frames to the chat hub and the status ledger.
package server
