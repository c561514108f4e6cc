package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-leadtable/core"
)

var (
	_ gocmd.Commander[ActivateTriggerMessage]   = (*ActivateTriggerCommand)(nil)
	_ gocmd.Commander[DeactivateTriggerMessage] = (*DeactivateTriggerCommand)(nil)
	_ gocmd.Commander[DeliverEventMessage]      = (*DeliverEventCommand)(nil)
	_ gocmd.Commander[InvokeActionMessage]      = (*InvokeActionCommand)(nil)
	_ gocmd.Commander[SchedulePollMessage]      = (*SchedulePollCommand)(nil)
	_ gocmd.Commander[InvalidateOptionsMessage] = (*InvalidateOptionsCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)
