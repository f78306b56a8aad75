package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/lifecycle"
)

// ModuleCmd groups the module subcommands.
type ModuleCmd struct {
	List    ModuleListCmd    `cmd:"" help:"List discovered modules"`
	Status  ModuleStatusCmd  `cmd:"" help:"Show module status"`
	Start   ModuleStartCmd   `cmd:"" help:"Start a module"`
	Stop    ModuleStopCmd    `cmd:"" help:"Stop a module"`
	Restart ModuleRestartCmd `cmd:"" help:"Restart a module"`
	Logs    ModuleLogsCmd    `cmd:"" help:"Show module service logs"`
	Health  ModuleHealthCmd  `cmd:"" help:"Show module health report"`
	Info    ModuleInfoCmd    `cmd:"" help:"Show module metadata"`
	Config  ModuleConfigCmd  `cmd:"" help:"Read or write module configuration"`
	Init    ModuleInitCmd    `cmd:"" help:"Scaffold a new module from the template"`
}

type ModuleListCmd struct{}

func (m *ModuleListCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	for _, name := range app.Manager.Entities().List(entity.KindModule) {
		status, err := app.Manager.Status(ctx, entity.KindModule, name)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %s\n", name, status)
	}
	return nil
}

type ModuleStatusCmd struct {
	Name string `arg:"" help:"Module name"`
}

func (m *ModuleStatusCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := app.Manager.Status(context.Background(), entity.KindModule, m.Name)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

type ModuleStartCmd struct {
	Name string        `arg:"" help:"Module name"`
	Wait time.Duration `help:"Wait for the module to reach running state" default:"0"`
}

func (m *ModuleStartCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if err := app.Manager.Start(ctx, entity.KindModule, m.Name); err != nil {
		return err
	}
	if m.Wait > 0 {
		return app.Manager.WaitForStatus(ctx, entity.KindModule, m.Name,
			lifecycle.StatusRunning, m.Wait, 2*time.Second)
	}
	return nil
}

type ModuleStopCmd struct {
	Name string `arg:"" help:"Module name"`
}

func (m *ModuleStopCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Manager.Stop(context.Background(), entity.KindModule, m.Name)
}

type ModuleRestartCmd struct {
	Name string `arg:"" help:"Module name"`
}

func (m *ModuleRestartCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Manager.Restart(context.Background(), entity.KindModule, m.Name)
}

type ModuleLogsCmd struct {
	Name    string `arg:"" help:"Module name"`
	Service string `short:"s" help:"Limit to one service"`
	Tail    int    `short:"n" help:"Lines per service" default:"100"`
}

func (m *ModuleLogsCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := app.Manager.Logs(context.Background(), entity.KindModule, m.Name, m.Service, m.Tail)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

type ModuleHealthCmd struct {
	Name string `arg:"" help:"Module name"`
}

func (m *ModuleHealthCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := app.Manager.Health(context.Background(), entity.KindModule, m.Name)
	if err != nil {
		return err
	}
	return printJSON(report)
}

type ModuleInfoCmd struct {
	Name string `arg:"" help:"Module name"`
}

func (m *ModuleInfoCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	md, err := app.Manager.Metadata(entity.KindModule, m.Name)
	if err != nil {
		return err
	}
	return printJSON(md)
}

// ModuleConfigCmd reads the whole config, one key, or writes a key.
type ModuleConfigCmd struct {
	Get ModuleConfigGetCmd `cmd:"" help:"Read configuration"`
	Set ModuleConfigSetCmd `cmd:"" help:"Write a configuration key"`
}

type ModuleConfigGetCmd struct {
	Name string `arg:"" help:"Module name"`
	Key  string `arg:"" optional:"" help:"Configuration key (omit for all)"`
}

func (m *ModuleConfigGetCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return runConfigGet(app, entity.KindModule, m.Name, m.Key)
}

type ModuleConfigSetCmd struct {
	Name  string `arg:"" help:"Module name"`
	Key   string `arg:"" help:"Configuration key"`
	Value string `arg:"" help:"Configuration value"`
}

func (m *ModuleConfigSetCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Manager.SetConfig(entity.KindModule, m.Name, m.Key, m.Value)
}

type ModuleInitCmd struct {
	Name string `arg:"" help:"New module name"`
}

func (m *ModuleInitCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Scaffolder.Initialize(entity.KindModule, m.Name); err != nil {
		return err
	}
	fmt.Printf("module %s created\n", m.Name)
	return nil
}

// runConfigGet is shared between the module and tool config commands.
func runConfigGet(app *App, kind entity.Kind, name, key string) error {
	if key == "" {
		cfg, err := app.Manager.GetAllConfig(kind, name)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	}

	v, found, err := app.Manager.GetConfig(kind, name, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key %s not set for %s %s", key, kind, name)
	}
	fmt.Println(v)
	return nil
}
