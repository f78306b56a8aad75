package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/stackctl/internal/entity"
)

// ToolCmd groups the tool subcommands.
type ToolCmd struct {
	List   ToolListCmd   `cmd:"" help:"List discovered tools"`
	Run    ToolRunCmd    `cmd:"" help:"Execute a tool"`
	Test   ToolTestCmd   `cmd:"" help:"Run a tool's test scripts"`
	Info   ToolInfoCmd   `cmd:"" help:"Show tool metadata"`
	Config ToolConfigCmd `cmd:"" help:"Read or write tool configuration"`
	Init   ToolInitCmd   `cmd:"" help:"Scaffold a new tool from the template"`
}

type ToolListCmd struct{}

func (t *ToolListCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, name := range app.Manager.Entities().List(entity.KindTool) {
		fmt.Println(name)
	}
	return nil
}

type ToolRunCmd struct {
	Name string   `arg:"" help:"Tool name"`
	Opt  []string `short:"o" help:"Tool option as key=value (repeatable)"`
}

func (t *ToolRunCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := make(map[string]any, len(t.Opt))
	for _, raw := range t.Opt {
		key, value, found := strings.Cut(raw, "=")
		if !found || key == "" {
			return fmt.Errorf("option %q is not key=value", raw)
		}
		opts[key] = value
	}

	result, err := app.Manager.RunTool(context.Background(), t.Name, opts)
	if err != nil {
		return err
	}
	return printJSON(result)
}

type ToolTestCmd struct {
	Name  string `arg:"" help:"Tool name"`
	Suite string `help:"Test suite (unit or integration, default both)" default:""`
}

func (t *ToolTestCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := app.Manager.RunToolTests(context.Background(), t.Name, t.Suite)
	if err != nil {
		return err
	}
	for _, r := range report.Results {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
		}
		fmt.Printf("%s %s/%s\n", mark, r.Suite, r.Script)
	}
	fmt.Printf("%d passed, %d failed\n", report.Passed, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d test script(s) failed", report.Failed)
	}
	return nil
}

type ToolInfoCmd struct {
	Name string `arg:"" help:"Tool name"`
}

func (t *ToolInfoCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	md, err := app.Manager.Metadata(entity.KindTool, t.Name)
	if err != nil {
		return err
	}
	return printJSON(md)
}

// ToolConfigCmd mirrors the module config commands for tools, where keys
// may be dot paths into the nested YAML config.
type ToolConfigCmd struct {
	Get ToolConfigGetCmd `cmd:"" help:"Read configuration"`
	Set ToolConfigSetCmd `cmd:"" help:"Write a configuration key"`
}

type ToolConfigGetCmd struct {
	Name string `arg:"" help:"Tool name"`
	Key  string `arg:"" optional:"" help:"Configuration key, dot path allowed (omit for all)"`
}

func (t *ToolConfigGetCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return runConfigGet(app, entity.KindTool, t.Name, t.Key)
}

type ToolConfigSetCmd struct {
	Name  string `arg:"" help:"Tool name"`
	Key   string `arg:"" help:"Configuration key, dot path allowed"`
	Value string `arg:"" help:"Configuration value"`
}

func (t *ToolConfigSetCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Manager.SetConfig(entity.KindTool, t.Name, t.Key, t.Value)
}

type ToolInitCmd struct {
	Name string `arg:"" help:"New tool name"`
}

func (t *ToolInitCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Scaffolder.Initialize(entity.KindTool, t.Name); err != nil {
		return err
	}
	fmt.Printf("tool %s created\n", t.Name)
	return nil
}
