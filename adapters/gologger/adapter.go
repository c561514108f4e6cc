// Package gologger binds go-logger loggers to the LeadTable service and to
// the go-job poll worker.
package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-leadtable/core"
	glog "github.com/goliatone/go-logger/glog"
)

const DefaultName = "leadtable"

// Loggers is one resolved logger exposed through both the glog and the
// go-job contracts.
type Loggers struct {
	Provider    glog.LoggerProvider
	Logger      glog.Logger
	JobProvider job.LoggerProvider
	JobLogger   job.Logger
}

// For resolves name with precedence provider, then logger, then nop.
func For(name string, provider glog.LoggerProvider, logger glog.Logger) Loggers {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	if resolvedLogger == nil {
		resolvedLogger = glog.Nop()
	}

	out := Loggers{Provider: resolvedProvider, Logger: resolvedLogger}
	if resolvedProvider != nil {
		out.JobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	out.JobLogger = job.GoLogger(resolvedLogger)
	return out
}

func (l Loggers) ServiceOptions() []core.Option {
	return []core.Option{
		core.WithLoggerProvider(l.Provider),
		core.WithLogger(l.Logger),
	}
}

func ServiceOptions(provider glog.LoggerProvider, logger glog.Logger) []core.Option {
	return For(DefaultName, provider, logger).ServiceOptions()
}
