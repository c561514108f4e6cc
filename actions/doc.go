// Package actions exposes the LeadTable REST resources as invokable
// resource/operation pairs, one remote call per input item.
package actions
