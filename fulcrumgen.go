// Package fulcrumgen generates Sequelize model definitions from Fulcrum form schemas.
//
// A Fulcrum form is a tree of input elements. Elements that sit directly on the
// form become columns of the form's own table; elements inside a repeatable
// section become columns of a child table named after the repeatable. Each table
// is written as one JavaScript module exporting a Sequelize model factory.
//
// # Quick Start
//
// The simplest way to use this package is with Generate:
//
//	opts := fulcrumgen.DefaultOptions()
//	opts.Directory = "models"
//	err := fulcrumgen.Generate(ctx, apiKey, "f0c4e5b2-...", "inspections", &opts)
//
// # Pipeline
//
// Generation runs in three stages, each reported in a StageError on failure:
//   - fetch: download the form schema from the Fulcrum API
//   - plan: group elements into tables and check table and column names
//   - write: create the output directory and write one file per table
//
// Models are rendered between plan and write; nothing is written unless
// fetch and plan succeed. Invalid options are rejected before fetching.
//
// # Record Links
//
// Multi-select record link fields are modelled as narrow join tables named
// <owner>_<field> by default (RecordLinks "join"), or as full tables like a
// repeatable (RecordLinks "table").
package fulcrumgen

import (
	"context"
	"fmt"

	"github.com/tordrt/fulcrumgen/internal/config"
	"github.com/tordrt/fulcrumgen/internal/formatter"
	"github.com/tordrt/fulcrumgen/internal/fulcrum"
	"github.com/tordrt/fulcrumgen/internal/model"
	"github.com/tordrt/fulcrumgen/internal/planner"
	"github.com/tordrt/fulcrumgen/internal/schema"
)

// Options configures generation. See config.Options for the fields.
type Options = config.Options

// DefaultOptions returns the defaults: two space indentation, ./models output
// directory, .js files and join tables for record links.
func DefaultOptions() Options {
	return config.Default()
}

// File is one rendered model: the table name and its source text
type File = formatter.File

// FormLoader retrieves a form schema by ID
type FormLoader interface {
	FetchForm(ctx context.Context, formID string) (*schema.Form, error)
}

// Stage names a step of the generation pipeline
type Stage string

const (
	StageFetch Stage = "fetch"
	StagePlan  Stage = "plan"
	StageWrite Stage = "write"
)

// StageError reports which stage of the pipeline failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Generate fetches a form from the Fulcrum API and writes its models.
//
// Parameters:
//   - ctx: Context for cancellation of the fetch and the writes
//   - apiKey: Fulcrum API token
//   - formID: ID of the form to generate models for
//   - rootTable: name of the table derived from the form itself
//   - opts: generation options (nil for defaults)
func Generate(ctx context.Context, apiKey, formID, rootTable string, opts *Options) error {
	o := resolve(opts)
	if err := o.Validate(); err != nil {
		return err
	}

	clientOpts := []fulcrum.Option{}
	if o.BaseURL != "" {
		clientOpts = append(clientOpts, fulcrum.WithBaseURL(o.BaseURL))
	}
	client, err := fulcrum.NewClient(apiKey, clientOpts...)
	if err != nil {
		return stageErr(StageFetch, err)
	}

	return GenerateWith(ctx, client, formID, rootTable, &o)
}

// GenerateWith is Generate with a caller supplied form loader
func GenerateWith(ctx context.Context, loader FormLoader, formID, rootTable string, opts *Options) error {
	o := resolve(opts)
	if err := o.Validate(); err != nil {
		return err
	}

	form, err := loader.FetchForm(ctx, formID)
	if err != nil {
		return stageErr(StageFetch, err)
	}
	o.Log().Info("form fetched", "form", form.Name, "elements", len(form.AllElements()))

	return GenerateFromForm(ctx, form, rootTable, &o)
}

// GenerateFromForm plans, renders and writes the models of an already loaded form
func GenerateFromForm(ctx context.Context, form *schema.Form, rootTable string, opts *Options) error {
	o := resolve(opts)

	files, err := Render(form, rootTable, &o)
	if err != nil {
		return err
	}
	return WriteModels(ctx, files, &o)
}

// Render returns the generated source of every table in plan order:
// form and repeatable tables in document order, then join tables.
func Render(form *schema.Form, rootTable string, opts *Options) ([]File, error) {
	o := resolve(opts)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	plan, err := planner.New(rootTable, o.RecordLinks).Plan(form)
	if err != nil {
		return nil, stageErr(StagePlan, err)
	}
	o.Log().Debug("plan built", "tables", len(plan.Tables), "link_tables", len(plan.LinkTables))

	build := o.BuildOptions()
	models := make([]*model.Model, 0, len(plan.Tables)+len(plan.LinkTables))
	for _, t := range plan.Tables {
		models = append(models, model.Build(t, form, build))
	}
	for _, lt := range plan.LinkTables {
		models = append(models, model.BuildLink(lt, build))
	}
	for _, m := range models {
		if err := m.CheckColumns(); err != nil {
			return nil, stageErr(StagePlan, err)
		}
	}

	indent := formatter.Indent(o.Spaces, o.Indentation)
	files := make([]formatter.File, 0, len(models))
	for _, m := range models {
		files = append(files, formatter.File{Table: m.Table, Content: formatter.Render(m, indent)})
	}
	return files, nil
}

// WriteModels writes one <table>.<extension> file per entry into opts.Directory
func WriteModels(ctx context.Context, files []File, opts *Options) error {
	o := resolve(opts)

	w := formatter.NewMultiFileWriter(o.Directory, o.Extension)
	if err := w.Write(ctx, files); err != nil {
		return stageErr(StageWrite, err)
	}

	for _, f := range files {
		o.Log().Info("model written", "path", w.Path(f.Table), "bytes", len(f.Content))
	}
	return nil
}

func resolve(opts *Options) Options {
	if opts == nil {
		return DefaultOptions()
	}
	return *opts
}
