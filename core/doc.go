// Package core contains the LeadTable integration domain: the layer address
// resolver, the webhook subscription lifecycle, the inbound event normalizer
// and the option resolver used by host property renderers.
//
// Lower-level adapters (the REST client, stores, command and job bridges)
// depend on this package; core must not depend on them.
package core
