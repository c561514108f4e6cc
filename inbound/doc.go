// Package inbound receives LeadTable webhook deliveries and poll requests on
// behalf of the host.
//
// Deliveries carry no id of their own, so repeated bodies are deduplicated by
// a content digest unless the caller supplies an idempotency key. Claims are
// failed on handler errors so a redelivery is processed again.
package inbound
