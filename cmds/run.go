package cmds

import (
	"context"
	"fmt"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"

	"github.com/mockpress/mockpress/pkg/compose"
	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/imagedoc"
	"github.com/mockpress/mockpress/pkg/runlog"
)

type RunCommand struct{ *gcmds.CommandDescription }

type RunSettings struct {
	Config    string   `glazed.parameter:"config"`
	Templates []string `glazed.parameter:"templates"`
	Designs   []string `glazed.parameter:"designs"`
	Active    string   `glazed.parameter:"active"`
}

func NewRunCommand() (*RunCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"run",
		gcmds.WithShort("Compose every template with every design asset and export the results"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithHelp("Batch YAML configuration file"), parameters.WithShortFlag("c")),
			parameters.NewParameterDefinition("templates", parameters.ParameterTypeStringList, parameters.WithHelp("Only process templates with these stems; default all")),
			parameters.NewParameterDefinition("designs", parameters.ParameterTypeStringList, parameters.WithHelp("Only process design assets with these stems; default all")),
			parameters.NewParameterDefinition("active", parameters.ParameterTypeString, parameters.WithHelp("Template to open as the active document (with use_active_document)")),
		),
		gcmds.WithLayersList(layer),
	)
	return &RunCommand{cd}, nil
}

func (c *RunCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &RunSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	cfg, err := config.Load(s.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc := imagedoc.NewService()
	if cfg.UseActiveDocument {
		if s.Active == "" {
			return fmt.Errorf("use_active_document is set; name the open document with --active")
		}
		doc, err := svc.OpenTemplate(s.Active)
		if err != nil {
			return err
		}
		svc.SetActive(doc)
	}

	lg, err := runlog.Open(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Close() }()

	runner := compose.Runner{Service: svc, Config: cfg, Log: lg}
	sum, err := runner.Run(compose.Options{Templates: s.Templates, Designs: s.Designs})
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d file(s) across %d item(s): %d ok, %d skipped, %d failed\n",
		sum.FilesWritten, sum.Items, sum.OK, sum.Skipped, sum.Failed)
	fmt.Printf("Run log: %s\n", lg.Path())
	return nil
}

var _ gcmds.BareCommand = &RunCommand{}
