package main

import (
	"flag"
	"fmt"

	"github.com/example/visionlearn/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.root.out(), c.root.cfg().String())
		return nil
	case "save":
		return c.runSave()
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) runSave() error {
	override := c.root.configPath
	if override == "" {
		override = configPathOverride
	}
	loader := config.NewLoader(version, override)
	if existing := loader.GetConfigPath(); existing != "" && override == "" {
		loader.OverridePath = existing
	}
	path, err := loader.Save(c.root.cfg())
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.root.errOut(), "Configuration saved to %s\n", path)
	return nil
}
