package cli

// This file contains the info2 and dir commands.

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rbinspect/rbinspect/config"
	"github.com/rbinspect/rbinspect/discover"
	"github.com/rbinspect/rbinspect/ifile"
	"github.com/rbinspect/rbinspect/info2"
	"github.com/rbinspect/rbinspect/model"
	"github.com/rbinspect/rbinspect/render"
	"github.com/urfave/cli/v2"
)

// legacyOnlyRecordSize is the INFO2 record size without a Unicode path.
const legacyOnlyRecordSize = 280

// options merges the config file with command line flags. Flags win.
func (a *App) options(ctx *cli.Context) (config.Options, error) {
	opts := config.Default()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			if errors.Is(err, config.ErrInvalidOption) {
				return config.Options{}, withCode(ExitArgument, err)
			}
			return config.Options{}, withCode(ExitOpenFile, err)
		}
		opts = loaded
		a.logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	if ctx.IsSet("format") {
		f, err := config.ParseFormat(ctx.String("format"))
		if err != nil {
			return config.Options{}, withCode(ExitArgument, err)
		}
		opts.Format = f
	}
	if ctx.IsSet("delimiter") {
		d := config.UnescapeDelimiter(ctx.String("delimiter"))
		opts.Delimiter = &d
	}
	if ctx.IsSet("no-heading") {
		opts.NoHeading = ctx.Bool("no-heading")
	}
	if ctx.IsSet("localtime") {
		opts.LocalTime = ctx.Bool("localtime")
	}
	if ctx.IsSet("human-size") {
		opts.HumanSize = ctx.Bool("human-size")
	}
	if ctx.IsSet("legacy-filename") {
		opts.Codepage = ctx.String("legacy-filename")
	}
	opts.Output = ctx.String("output")

	if err := opts.Validate(); err != nil {
		return config.Options{}, withCode(ExitArgument, err)
	}
	if err := checkOutput(opts.Output); err != nil {
		return config.Options{}, err
	}
	return opts, nil
}

func singleArg(ctx *cli.Context, what string) (string, error) {
	if ctx.NArg() != 1 {
		return "", withCode(ExitArgument,
			fmt.Errorf("%w: exactly one %s must be given, got %d", config.ErrInvalidOption, what, ctx.NArg()))
	}
	return ctx.Args().First(), nil
}

// decodeFailure classifies a fatal decoder error.
func decodeFailure(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return withCode(ExitOpenFile, err)
	}
	return withCode(ExitIllegalData, err)
}

func (a *App) info2(ctx *cli.Context) error {
	opts, err := a.options(ctx)
	if err != nil {
		return err
	}
	path, err := singleArg(ctx, "INFO2 file")
	if err != nil {
		return err
	}

	meta := model.NewRunMetadata(model.ArtifactKindLegacyIndex, path)
	if err := info2.New(a.logger).ParseFile(path, meta); err != nil {
		return decodeFailure(err)
	}

	if meta.RecordSize == legacyOnlyRecordSize && len(meta.Records) > 0 && opts.Codepage == "" {
		return withCode(ExitArgument, fmt.Errorf(
			"%w: this INFO2 file has no Unicode paths, specify their code page with --legacy-filename",
			config.ErrInvalidOption))
	}

	return a.finish(meta, opts)
}

func (a *App) dir(ctx *cli.Context) error {
	opts, err := a.options(ctx)
	if err != nil {
		return err
	}
	path, err := singleArg(ctx, "recycle bin folder or $I file")
	if err != nil {
		return err
	}
	if opts.Codepage != "" {
		a.logger.Debug().Str("codepage", opts.Codepage).Msg("Ignoring legacy code page for $I files")
		opts.Codepage = ""
	}

	in, err := discover.Find(a.logger, path)
	if err != nil {
		return withCode(ExitOpenFile, err)
	}

	meta := model.NewRunMetadata(model.ArtifactKindPerItemIndex, path)
	ifile.New(a.logger).ParseFiles(in.Paths, meta)
	discover.ResolvePresence(a.logger, in, meta)

	if len(in.Paths) > 0 && len(meta.Records) == 0 {
		render.WriteErrors(a.stderr, meta)
		if len(in.Paths) == 1 {
			if err, ok := meta.Errors.Get(model.ByFileIdentity(in.Paths[0])); ok {
				return decodeFailure(err)
			}
		}
		return withCode(ExitIllegalData, ErrAllFilesFailed)
	}

	return a.finish(meta, opts)
}

// finish renders meta and reports problems found while decoding.
func (a *App) finish(meta *model.RunMetadata, opts config.Options) error {
	a.logger.Debug().
		Stringer("kind", meta.Kind).
		Int("records", len(meta.Records)).
		Int("ledger", meta.Errors.Len()).
		Msg("Decoding finished")

	report := render.NewReport(meta, opts)
	if err := a.writeOutput(opts.Output, report.Write); err != nil {
		return err
	}

	render.WriteErrors(a.stderr, meta)
	if meta.HasErrors() {
		return withCode(ExitDubious, ErrDubiousData)
	}
	return nil
}
