package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ StaticDataStore = (*MemoryStaticDataStore)(nil)
	_ EventSink       = EventSinkFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
