package cmds

import (
	"context"
	"fmt"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/imagedoc"
	"github.com/mockpress/mockpress/pkg/match"
)

type PlaceholdersCommand struct{ *gcmds.CommandDescription }

type PlaceholdersSettings struct {
	Config string `glazed.parameter:"config"`
	All    bool   `glazed.parameter:"all"`
	Active string `glazed.parameter:"active"`
}

func NewPlaceholdersCommand() (*PlaceholdersCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"placeholders",
		gcmds.WithShort("List the placeholder regions the configured matcher selects per template"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("c"), parameters.WithHelp("Batch YAML configuration file")),
			parameters.NewParameterDefinition("all", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("List every substitutable region, matched or not")),
			parameters.NewParameterDefinition("active", parameters.ParameterTypeString, parameters.WithHelp("Template to inspect as the active document (with use_active_document)")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &PlaceholdersCommand{cd}, nil
}

// placeholderSources resolves the template paths to inspect: the scanned
// template directory, or just the named active document.
func placeholderSources(cfg *config.Config, active string) ([]string, error) {
	if cfg.UseActiveDocument {
		if active == "" {
			return nil, fmt.Errorf("use_active_document is set; name the open document with --active")
		}
		return []string{active}, nil
	}
	templates, err := document.ScanTemplates(cfg.BasesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan template directory: %w", err)
	}
	return templates, nil
}

// placeholderListing is one report entry; Err marks templates that could not
// be opened.
type placeholderListing struct {
	Template string
	Err      error
	Region   document.Region
	Matched  bool
}

// listPlaceholders walks every template with walkWith and reports matcher's
// verdict per region. Unopenable templates yield one error entry each.
func listPlaceholders(svc document.Service, templates []string, walkWith, matcher match.Matcher) []placeholderListing {
	var out []placeholderListing
	for _, tplPath := range templates {
		doc, err := svc.OpenTemplate(tplPath)
		if err != nil {
			out = append(out, placeholderListing{Template: document.Stem(tplPath), Err: err})
			continue
		}
		for _, region := range document.FindPlaceholders(doc, walkWith) {
			out = append(out, placeholderListing{
				Template: doc.Name(),
				Region:   region,
				Matched:  matcher.Matches(region.Name),
			})
		}
		_ = doc.Close()
	}
	return out
}

// GlazeCommand: one structured row per region.
func (c *PlaceholdersCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &PlaceholdersSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	cfg, err := config.Load(s.Config)
	if err != nil {
		return err
	}
	matcher, err := cfg.Matcher()
	if err != nil {
		return err
	}

	templates, err := placeholderSources(cfg, s.Active)
	if err != nil {
		return err
	}

	// With --all, walk with a match-everything pattern and report the real
	// matcher's verdict per row.
	walkWith := matcher
	if s.All {
		walkWith, _ = match.Compile("/.*/")
	}

	for _, l := range listPlaceholders(imagedoc.NewService(), templates, walkWith, matcher) {
		var row types.Row
		if l.Err != nil {
			row = types.NewRow(
				types.MRP("template", l.Template),
				types.MRP("type", "error"),
				types.MRP("error", l.Err.Error()),
			)
		} else {
			row = types.NewRow(
				types.MRP("template", l.Template),
				types.MRP("region", l.Region.Name),
				types.MRP("left", l.Region.Bounds.Left),
				types.MRP("top", l.Region.Bounds.Top),
				types.MRP("right", l.Region.Bounds.Right),
				types.MRP("bottom", l.Region.Bounds.Bottom),
				types.MRP("matched", l.Matched),
			)
		}
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &PlaceholdersCommand{}
