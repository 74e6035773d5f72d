// Package compose is the batch driver: it iterates the cross product of
// template documents and design assets, orchestrates substitution, fit
// scaling, resizing, and export per pairing, and isolates every per-item
// failure so a single broken asset never aborts the run.
package compose

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/export"
	"github.com/mockpress/mockpress/pkg/fit"
	"github.com/mockpress/mockpress/pkg/match"
	"github.com/mockpress/mockpress/pkg/runlog"
)

// Runner executes one batch against a host document service. Processing is
// strictly sequential: the host environment is not safe for concurrent
// structural mutation, so exactly one working duplicate is open at a time.
type Runner struct {
	Service document.Service
	Config  *config.Config
	Log     *runlog.Log
}

// Run executes the whole batch and returns its summary. Only
// configuration-level problems (bad matcher, unscannable sources, missing
// active document) return an error; item-level failures are logged and
// swallowed. Once the loop starts it runs to exhaustion.
func (r *Runner) Run(opts Options) (Summary, error) {
	cfg := r.Config

	matcher, err := cfg.Matcher()
	if err != nil {
		return Summary{}, err
	}

	assets, err := document.ScanAssets(cfg.LogosDir)
	if err != nil {
		return Summary{}, err
	}
	assets = filterByStem(assets, opts.Designs, document.Stem)
	if len(assets) == 0 {
		return Summary{}, fmt.Errorf("no design assets selected in %s", cfg.LogosDir)
	}

	var templates []string
	if !cfg.UseActiveDocument {
		templates, err = document.ScanTemplates(cfg.BasesDir)
		if err != nil {
			return Summary{}, err
		}
		templates = filterByStem(templates, opts.Templates, document.Stem)
		if len(templates) == 0 {
			return Summary{}, fmt.Errorf("no template documents selected in %s", cfg.BasesDir)
		}
	}

	// The unit preference is shared with every other consumer of the host
	// environment; the override spans the whole run and is restored even
	// when items fail midway.
	prevUnits := r.Service.Units()
	r.Service.SetUnits(document.UnitsPixels)
	defer r.Service.SetUnits(prevUnits)

	r.Log.Printf("run start: config=%s templates=%s designs=%s output=%s",
		cfg.Source, templateSource(cfg), cfg.LogosDir, cfg.OutputDir)

	var sum Summary
	if cfg.UseActiveDocument {
		active, err := r.Service.Active()
		if err != nil {
			return Summary{}, ErrNoActiveDocument
		}
		r.runTemplate(active, active.Name(), assets, matcher, &sum)
	} else {
		for _, tplPath := range templates {
			stem := document.Stem(tplPath)
			tpl, err := r.Service.OpenTemplate(tplPath)
			if err != nil {
				// Every pairing against an unreadable template is its own
				// failed work item; the totals must still add up to
				// templates x designs.
				for _, assetPath := range assets {
					sum.Items++
					sum.Failed++
					r.Log.Errorf("%s_%s: %v", stem, document.Stem(assetPath), err)
				}
				continue
			}
			r.runTemplate(tpl, stem, assets, matcher, &sum)
			if err := tpl.Close(); err != nil {
				log.Warn().Str("template", stem).Err(err).Msg("failed to close template")
			}
		}
	}

	r.Log.Printf("run complete: %d file(s) exported across %d item(s)", sum.FilesWritten, sum.Items)
	return sum, nil
}

func (r *Runner) runTemplate(tpl document.Document, stem string, assets []string, matcher match.Matcher, sum *Summary) {
	for _, assetPath := range assets {
		sum.Items++
		name := stem + "_" + document.Stem(assetPath)
		res := r.processItem(tpl, stem, name, assetPath, matcher)
		switch res.Outcome {
		case OutcomeOK:
			sum.OK++
			sum.FilesWritten += res.Files
			r.Log.Printf("OK: %s (%d file(s))", name, res.Files)
		case OutcomeSkipped:
			sum.Skipped++
			r.Log.Warnf("%s: %s", name, res.Reason)
		case OutcomeFailed:
			sum.Failed++
			r.Log.Errorf("%s: %v", name, res.Err)
		}
	}
}

// processItem runs the per-item state machine: duplicate, locate
// placeholders, substitute and fit each one, cap the long edge, export every
// requested format. The working duplicate is discarded on every exit path.
func (r *Runner) processItem(tpl document.Document, stem, name, assetPath string, matcher match.Matcher) ItemResult {
	cfg := r.Config

	dup, err := tpl.Duplicate(name)
	if err != nil {
		return ItemResult{Outcome: OutcomeFailed, Err: fmt.Errorf("failed to duplicate template: %w", err)}
	}
	defer func() {
		if err := dup.Close(); err != nil {
			log.Warn().Str("item", name).Err(err).Msg("failed to discard working duplicate")
		}
	}()

	regions := document.FindPlaceholders(dup, matcher)
	if len(regions) == 0 {
		return ItemResult{Outcome: OutcomeSkipped, Reason: fmt.Sprintf("no placeholder regions match %s", matcher)}
	}
	log.Debug().Str("item", name).Int("placeholders", len(regions)).Msg("placeholders located")

	for _, region := range regions {
		if err := r.substituteAndFit(dup, region, assetPath); err != nil {
			return ItemResult{Outcome: OutcomeFailed, Err: fmt.Errorf("region %q, asset %s: %w", region.Name, filepath.Base(assetPath), err)}
		}
	}

	w, h := dup.Size()
	if nw, nh, resize := fit.CapLongEdge(w, h, cfg.MaxLong()); resize {
		if err := dup.Resize(nw, nh); err != nil {
			return ItemResult{Outcome: OutcomeFailed, Err: fmt.Errorf("failed to resize to %dx%d: %w", nw, nh, err)}
		}
		log.Debug().Str("item", name).Int("width", nw).Int("height", nh).Msg("long edge capped")
	}

	outDir := cfg.OutputDir
	if cfg.MakeSubfolders {
		outDir = filepath.Join(outDir, stem)
	}

	files := 0
	for _, id := range cfg.Formats {
		f, ok := export.Known(id)
		if !ok {
			r.Log.Warnf("%s: unknown export format %q", name, id)
			continue
		}
		written, err := export.Write(dup, outDir, name, f, export.Spec(f, cfg.JPGQuality), cfg.Overwrite)
		if err != nil {
			return ItemResult{Outcome: OutcomeFailed, Err: err}
		}
		if written {
			files++
		}
	}
	return ItemResult{Outcome: OutcomeOK, Files: files}
}

// substituteAndFit replaces one placeholder's content with the design asset
// and rescales it uniformly so the new content fits entirely inside the
// placeholder's original box, anchored at its center.
func (r *Runner) substituteAndFit(dup document.Document, region document.Region, assetPath string) error {
	original := region.Bounds
	if err := dup.ReplaceContent(region.ID, assetPath); err != nil {
		return fmt.Errorf("failed to substitute content: %w", err)
	}
	current, err := dup.RegionBounds(region.ID)
	if err != nil {
		return fmt.Errorf("failed to query substituted bounds: %w", err)
	}
	factor := fit.Scale(original, current)
	if err := dup.ScaleRegion(region.ID, factor); err != nil {
		return fmt.Errorf("failed to apply fit scale %.4f: %w", factor, err)
	}
	return nil
}

func templateSource(cfg *config.Config) string {
	if cfg.UseActiveDocument {
		return "<active document>"
	}
	return cfg.BasesDir
}
