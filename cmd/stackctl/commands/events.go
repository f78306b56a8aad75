package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/stackctl/internal/events"
)

// EventsCmd shows the lifecycle audit trail.
type EventsCmd struct {
	Entity string `help:"Limit to one entity"`
	Kind   string `help:"Entity kind when --entity is set" enum:"module,tool" default:"module"`
	Limit  int    `short:"n" help:"Maximum events to show" default:"20"`
}

func (e *EventsCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if app.AuditStore == nil {
		return fmt.Errorf("audit trail disabled: set audit.database in %s", root.Config)
	}

	ctx := context.Background()
	var list []events.Event
	if e.Entity != "" {
		list, err = app.AuditStore.ByEntity(ctx, e.Kind, e.Entity)
	} else {
		list, err = app.AuditStore.Recent(ctx, e.Limit)
	}
	if err != nil {
		return err
	}

	for _, ev := range list {
		fmt.Printf("%s  %-7s %-20s %-8s %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.Kind, ev.Entity, ev.Operation, ev.Outcome)
	}
	return nil
}
