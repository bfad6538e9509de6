package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appregistry "github.com/albertocavalcante/go-appregistry"
	"github.com/albertocavalcante/go-appregistry/registry"
)

var (
	jsonOutput bool
	exportDir  string
	importSave bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Resolve the registry and print its entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return printRegistry(cmd.OutOrStdout(), s.reg.Snapshot())
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Clear advisories and resolve again, bypassing caches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		s.reg.Reload(cmd.Context())
		return printRegistry(cmd.OutOrStdout(), s.reg.Snapshot())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every entry can be exported",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return reportValidation(cmd.OutOrStdout(), appregistry.Check(s.reg.All()))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the JSON document and companion script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := exportDir
		if dir == "" {
			dir = cfg.Export.Dir
		}
		s, err := loadRegistry(cmd.Context(), appregistry.WithSink(appregistry.DirSink{Dir: dir}))
		if err != nil {
			return err
		}
		defer s.close()

		if cfg.UpdatedBy != "" && s.reg.Meta().UpdatedBy == "" {
			by := cfg.UpdatedBy
			s.reg.SetMeta(appregistry.MetaPatch{UpdatedBy: &by})
		}

		b, err := s.reg.Export(cmd.Context(), nil)
		if err != nil {
			var verrs *registry.ValidationErrors
			if errors.As(err, &verrs) {
				_ = reportValidation(cmd.OutOrStdout(), appregistry.Validation{Errors: verrs.Messages()})
			}
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", color.GreenString("wrote"), b.JSON.Name)
		fmt.Fprintf(out, "%s %s\n", color.GreenString("wrote"), b.Script.Name)
		fmt.Fprintf(out, "version %s, %d apps\n", b.Document.Version, len(b.Document.Apps))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the registry with a document file",
	Long: `Loads FILE as the registry, bypassing the resolution chain. Use "-" for
standard input. With --save the imported list becomes the local override.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		if err := s.reg.Import(cmd.Context(), r); err != nil {
			return err
		}
		if importSave && !s.reg.SaveToLocal(cmd.Context(), nil) {
			return errors.New("unable to save local overrides")
		}
		return printRegistry(cmd.OutOrStdout(), s.reg.Snapshot())
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint FILE...",
	Short: "Check registry documents against the document schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := registry.NewSchemaValidator()
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := v.ValidateDocument(data); err != nil {
				failed++
				fmt.Fprintf(out, "%s%s\n", color.RedString("error: "), path)
				var verrs *registry.ValidationErrors
				if errors.As(err, &verrs) {
					for _, m := range verrs.Messages() {
						fmt.Fprintf(out, "  - %s\n", m)
					}
				} else {
					fmt.Fprintf(out, "  - %v\n", err)
				}
				continue
			}
			fmt.Fprintf(out, "%s%s\n", color.GreenString("ok: "), path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two registry documents",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldDoc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		newDoc, err := readDocument(args[1])
		if err != nil {
			return err
		}
		d := appregistry.DiffRegistries(oldDoc, newDoc)
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, d)
		}
		if d.IsEmpty() {
			fmt.Fprintln(out, "no changes")
			return nil
		}
		if d.Version != nil {
			fmt.Fprintf(out, "version %s -> %s (%s)\n", d.Version.Old, d.Version.New, d.Version.Direction)
		}
		for _, a := range d.Added {
			fmt.Fprintf(out, "%s %s (%s)\n", color.GreenString("+"), a.Key, a.Label)
		}
		for _, r := range d.Removed {
			fmt.Fprintf(out, "%s %s (%s)\n", color.RedString("-"), r.Key, r.Label)
		}
		for _, c := range d.Changed {
			fmt.Fprintf(out, "%s %s\n", color.YellowString("~"), c.Key)
			for _, f := range c.Fields {
				fmt.Fprintf(out, "    %s: %v -> %v\n", f.Field, f.From, f.To)
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "", "output directory (default from config)")
	importCmd.Flags().BoolVar(&importSave, "save", false, "save the imported list as the local override")
	loadCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the canonical document as JSON")
	reloadCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the canonical document as JSON")
	diffCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the diff as JSON")

	rootCmd.AddCommand(loadCmd, reloadCmd, validateCmd, exportCmd, importCmd, lintCmd, diffCmd)
}

func readDocument(path string) (appregistry.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return appregistry.Document{}, err
	}
	var p appregistry.Payload
	if strings.HasSuffix(strings.ToLower(path), ".js") {
		pp, err := appregistry.NewBundledSource(path, data).Fetch(rootCmd.Context(), appregistry.FetchOptions{})
		if err != nil {
			return appregistry.Document{}, fmt.Errorf("%s: %w", path, err)
		}
		p = *pp
	} else if p, err = appregistry.DecodePayload(data); err != nil {
		return appregistry.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return appregistry.Document{Metadata: p.Meta, Apps: p.Normalized()}, nil
}

func printRegistry(out io.Writer, snap appregistry.Snapshot) error {
	if jsonOutput {
		return writeJSON(out, appregistry.Document{Metadata: snap.Meta, Apps: snap.Entries})
	}

	fmt.Fprintf(out, "Loaded: %s\n", appregistry.SourceLabel(snap.Status.Source))
	if v := snap.Meta.Version; v != "" {
		fmt.Fprintf(out, "Version: %s", v)
		if snap.Meta.Updated != "" {
			fmt.Fprintf(out, " (updated %s", snap.Meta.Updated)
			if snap.Meta.UpdatedBy != "" {
				fmt.Fprintf(out, " by %s", snap.Meta.UpdatedBy)
			}
			fmt.Fprint(out, ")")
		}
		fmt.Fprintln(out)
	}
	if snap.Status.Note != "" {
		fmt.Fprintln(out, color.CyanString(snap.Status.Note))
	}
	if snap.Status.Error != "" {
		fmt.Fprintf(out, "%s%s\n", color.YellowString("warning: "), snap.Status.Error)
	}
	for _, e := range snap.Entries {
		fmt.Fprintf(out, "  %-20s %-28s %s\n", e.Key, e.Label, describeAction(e))
	}
	return nil
}

func describeAction(e appregistry.Entry) string {
	switch a := e.Action.(type) {
	case appregistry.LinkAction:
		return a.URL
	case appregistry.LocalAction:
		return "local " + appregistry.EffectiveURL(e)
	case appregistry.ModalAction:
		return "modal #" + a.ModalID
	case appregistry.DisabledAction:
		return color.HiBlackString(a.Title)
	default:
		return e.Href
	}
}

func reportValidation(out io.Writer, v appregistry.Validation) error {
	if v.Valid {
		fmt.Fprintf(out, "%sregistry is valid\n", color.GreenString("ok: "))
		return nil
	}
	for _, m := range v.Errors {
		fmt.Fprintf(out, "%s%s\n", color.RedString("error: "), m)
	}
	return fmt.Errorf("%d validation errors", len(v.Errors))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
