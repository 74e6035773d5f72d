package cmds

import (
	"context"
	"os"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/export"
)

type ValidateCommand struct{ *gcmds.CommandDescription }

type ValidateSettings struct {
	Config string `glazed.parameter:"config"`
}

func NewValidateCommand() (*ValidateCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"validate",
		gcmds.WithShort("Check a batch configuration without processing anything"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("c"), parameters.WithHelp("Batch YAML configuration file")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &ValidateCommand{cd}, nil
}

func (c *ValidateCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &ValidateSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	cfg, err := config.Load(s.Config)
	if err != nil {
		return err
	}

	finding := func(level, field, msg string) error {
		return gp.AddRow(ctx, types.NewRow(
			types.MRP("level", level),
			types.MRP("field", field),
			types.MRP("message", msg),
		))
	}

	if !cfg.UseActiveDocument {
		if cfg.BasesDir == "" {
			if err := finding("error", "bases_dir", "required unless use_active_document is set"); err != nil {
				return err
			}
		} else if templates, err := document.ScanTemplates(cfg.BasesDir); err != nil {
			if err := finding("error", "bases_dir", err.Error()); err != nil {
				return err
			}
		} else if len(templates) == 0 {
			if err := finding("error", "bases_dir", "no template documents found in "+cfg.BasesDir); err != nil {
				return err
			}
		}
	}

	if cfg.LogosDir == "" {
		if err := finding("error", "logos_dir", "required"); err != nil {
			return err
		}
	} else if assets, err := document.ScanAssets(cfg.LogosDir); err != nil {
		if err := finding("error", "logos_dir", err.Error()); err != nil {
			return err
		}
	} else if len(assets) == 0 {
		if err := finding("error", "logos_dir", "no design assets found in "+cfg.LogosDir); err != nil {
			return err
		}
	}

	if cfg.OutputDir == "" {
		if err := finding("error", "output_dir", "required"); err != nil {
			return err
		}
	} else if fi, err := os.Stat(cfg.OutputDir); err == nil && !fi.IsDir() {
		if err := finding("error", "output_dir", cfg.OutputDir+" exists and is not a directory"); err != nil {
			return err
		}
	}

	if _, err := cfg.Matcher(); err != nil {
		if err := finding("error", "name_filter", err.Error()); err != nil {
			return err
		}
	}

	// Unknown formats are warnings here, matching their per-item treatment
	// during a run.
	for _, id := range cfg.Formats {
		if _, ok := export.Known(id); !ok {
			if err := finding("warning", "formats", "unknown export format "+id); err != nil {
				return err
			}
		}
	}

	return nil
}

var _ gcmds.GlazeCommand = &ValidateCommand{}
