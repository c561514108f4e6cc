// Package client is the LeadTable REST client. Every call carries the account
// credentials as x-api-key and email headers and translates non-2xx responses
// into the core error taxonomy.
package client
