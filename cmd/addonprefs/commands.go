package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/dom"
	"github.com/CreativeUnicorns/addonprefs/events"
	"github.com/CreativeUnicorns/addonprefs/internal/config"
	"github.com/CreativeUnicorns/addonprefs/l10n"
	"github.com/CreativeUnicorns/addonprefs/prompt"
	"github.com/CreativeUnicorns/addonprefs/storage"
)

func runValidate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one manifest is required")
	}

	var failed int
	for _, path := range fs.Args() {
		m, err := addonprefs.LoadManifest(path)
		if err == nil {
			err = addonprefs.Validate(m.Preferences)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%s, %d preferences)\n", path, m.ID, len(m.Preferences))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d manifests invalid", failed, fs.NArg())
	}
	return nil
}

// runDefaults seeds the manifest into a throwaway store and prints the result.
func runDefaults(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("defaults", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := loadValid(fs)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc := addonprefs.New(addonprefs.WithStorage(storage.NewMemoryStorage()), addonprefs.WithLogger(addonprefs.NopLogger()))
	defer svc.Close()

	if err := addonprefs.SeedDefaults(ctx, svc, m.ID, m.Preferences); err != nil {
		return err
	}
	return printEffective(ctx, out, svc, m.ID)
}

func runShow(args []string, out io.Writer) error {
	var cfg config.Config
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	asHTML := fs.Bool("html", false, "print the rendered options panel instead of values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := loadValid(fs)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	svc, err := cfg.OpenService(logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	if !*asHTML {
		if err := addonprefs.SeedDefaults(ctx, svc, m.ID, m.Preferences); err != nil {
			return err
		}
		return printEffective(ctx, out, svc, m.ID)
	}

	bus := events.New(logger)
	opts := []addonprefs.ManagerOption{addonprefs.WithManagerLogger(logger)}
	if cfg.LocaleDir != "" {
		bundle, err := l10n.LoadFS(os.DirFS(cfg.LocaleDir), ".", "en")
		if err != nil {
			return err
		}
		if catalog := bundle.Match(cfg.Locale); catalog != nil {
			opts = append(opts, addonprefs.WithLocalizer(catalog))
		}
	}
	mgr := addonprefs.NewManager(svc, bus, opts...)
	if _, err := mgr.Enable(ctx, m.Preferences, m.ID); err != nil {
		return err
	}

	doc := dom.NewOptionsPage(addonprefs.DetailRowsID)
	bus.DisplayPanel(doc, m.ID)
	container, _ := doc.Element(addonprefs.DetailRowsID)
	if err := container.Render(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

func runEdit(args []string, out io.Writer) error {
	var cfg config.Config
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := loadValid(fs)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	svc, err := cfg.OpenService(logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	if err := addonprefs.SeedDefaults(ctx, svc, m.ID, m.Preferences); err != nil {
		return err
	}

	bus := events.New(logger)
	bus.AddObserver(addonprefs.CommandTopic(m.ID), func(topic string, _ any, data string) {
		fmt.Fprintf(out, "%s: %s\n", topic, data)
	})

	editor := prompt.NewEditor(svc, prompt.NewSurveyDriver(), prompt.WithBus(bus), prompt.WithLogger(logger))
	res, err := editor.Run(ctx, m.ID, m.Preferences)
	if len(res.Changed) > 0 {
		fmt.Fprintf(out, "updated: %s\n", strings.Join(res.Changed, ", "))
	}
	return err
}

func loadValid(fs *flag.FlagSet) (addonprefs.Manifest, error) {
	if fs.NArg() != 1 {
		return addonprefs.Manifest{}, errors.New("exactly one manifest is required")
	}
	m, err := addonprefs.LoadManifest(fs.Arg(0))
	if err != nil {
		return addonprefs.Manifest{}, err
	}
	if err := addonprefs.Validate(m.Preferences); err != nil {
		return addonprefs.Manifest{}, err
	}
	return m, nil
}

// printEffective writes name=value lines in name order, values as JSON.
func printEffective(ctx context.Context, out io.Writer, svc *addonprefs.Service, id string) error {
	prefix := id + "."
	values, err := svc.Effective(ctx, prefix)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for key := range values {
		names = append(names, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := json.Marshal(values[prefix+name])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s=%s\n", name, data); err != nil {
			return err
		}
	}
	return nil
}
