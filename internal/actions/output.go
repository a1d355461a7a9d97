package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/eweilow/paket/internal/compare"
	"github.com/eweilow/paket/internal/configuration"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// NoUpdatesMessage is printed by the text report when nothing changed
const NoUpdatesMessage = "No updates required."

// OutputRunResult writes a run report in the requested format
func OutputRunResult(w io.Writer, result *RunResult, format configuration.OutputFormat) error {
	switch format {
	case configuration.OutputFormatText, "":
		return outputRunText(w, result)
	case configuration.OutputFormatTable:
		return outputRunTable(w, result)
	case configuration.OutputFormatJSON:
		return encodeJSON(w, result)
	case configuration.OutputFormatYAML:
		return encodeYAML(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputRunText(w io.Writer, result *RunResult) error {
	fmt.Fprintf(w, "Using root folder: %s\n", result.Root)
	if result.Source != "" {
		fmt.Fprintf(w, "Using registry '%s'\n", result.Source)
	}

	verb := "Checking"
	if result.Operation == OperationUpdate {
		verb = "Updating"
	}
	fmt.Fprintf(w, "\n%s packages matching globs:\n", verb)
	for _, glob := range result.Globs {
		fmt.Fprintf(w, " - %s\n", text.FgYellow.Sprint(glob))
	}
	if result.Mode == compare.ModeLatest {
		fmt.Fprint(w, "to the latest version.\n\n")
	} else {
		fmt.Fprint(w, "to the last published version.\n\n")
	}

	for _, manifestResult := range result.Manifests {
		if len(manifestResult.Changes) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", text.FgCyan.Sprint(manifestLabel(result.Root, manifestResult)))
		for _, change := range manifestResult.Changes {
			fmt.Fprintf(w, "  %s (%s): %s -> %s\n",
				change.Dependency,
				text.FgMagenta.Sprint(change.Category),
				text.FgYellow.Sprint(change.Old),
				text.FgGreen.Sprint(change.New),
			)
		}
	}

	if !result.Changed {
		fmt.Fprintln(w, NoUpdatesMessage)
	}
	fmt.Fprintln(w)
	return nil
}

func outputRunTable(w io.Writer, result *RunResult) error {
	if !result.Changed {
		fmt.Fprintf(w, "✅ %s\n", NoUpdatesMessage)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	if result.Operation == OperationUpdate {
		t.SetTitle("📦 Dependency Updates")
	} else {
		t.SetTitle("🔍 Dependency Check")
	}
	t.AppendHeader(table.Row{"Package", "Dependency", "Category", "Current", "→", "New", "Type"})

	for _, manifestResult := range result.Manifests {
		label := manifestLabel(result.Root, manifestResult)
		for _, change := range manifestResult.Changes {
			t.AppendRow(table.Row{
				label,
				change.Dependency,
				change.Category,
				change.Old,
				"→",
				change.New,
				formatUpdateType(change.UpdateType),
			})
		}
	}

	t.AppendFooter(table.Row{"", "", "", "", "", "Total", result.ChangeCount})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if result.Operation == OperationUpdate {
		fmt.Fprintf(w, "\n📝 %d manifest(s) written\n", len(result.Written))
	}
	return nil
}

// manifestLabel prefers the package name and falls back to the manifest's relative path
func manifestLabel(root string, manifestResult *ManifestResult) string {
	if manifestResult.Name != "" {
		return manifestResult.Name
	}
	if rel, err := filepath.Rel(root, manifestResult.Path); err == nil {
		return filepath.ToSlash(rel)
	}
	return manifestResult.Path
}

// formatUpdateType adds an emoji indicator to the update type
func formatUpdateType(ut compare.UpdateType) string {
	s := string(ut)
	switch ut {
	case compare.UpdateTypeMajor:
		return "🔴 " + s
	case compare.UpdateTypeMinor:
		return "🟡 " + s
	case compare.UpdateTypePatch:
		return "🟢 " + s
	case compare.UpdateTypeDowngrade:
		return "🔻 " + s
	default:
		return s
	}
}

// OutputPinResult writes a pin report in the requested format
func OutputPinResult(w io.Writer, result *PinResult, format configuration.OutputFormat) error {
	switch format {
	case configuration.OutputFormatText, "":
		return outputPinText(w, result)
	case configuration.OutputFormatTable:
		return outputPinTable(w, result)
	case configuration.OutputFormatJSON:
		return encodeJSON(w, result)
	case configuration.OutputFormatYAML:
		return encodeYAML(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputPinText(w io.Writer, result *PinResult) error {
	fmt.Fprintln(w, "Found packages")
	for _, pkg := range result.Workspace {
		fmt.Fprintf(w, "  %s: %s\n", pkg.Name, pkg.Version)
	}
	fmt.Fprintln(w, "Found non-workspace dependencies")
	for _, name := range result.Candidates {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "Matching versions")
	for _, pkg := range result.Resolved {
		fmt.Fprintf(w, "  %s: %s\n", pkg.Name, text.FgGreen.Sprint(pkg.Version))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "No version matching '%s'\n", result.VersionSpec)
		for _, name := range result.Skipped {
			fmt.Fprintf(w, "  %s\n", text.FgYellow.Sprint(name))
		}
	}
	if result.Applied {
		fmt.Fprintf(w, "Updated %d package(s)\n", len(result.Specs))
	} else {
		fmt.Fprintln(w, "Update specs (not applied)")
		for _, spec := range result.Specs {
			fmt.Fprintf(w, "  %s\n", spec)
		}
	}
	return nil
}

func outputPinTable(w io.Writer, result *PinResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("📌 Pin to %s", result.VersionSpec))
	t.AppendHeader(table.Row{"Package", "Version", "Origin"})

	for _, pkg := range result.Resolved {
		t.AppendRow(table.Row{pkg.Name, pkg.Version, "registry"})
	}
	for _, name := range result.Skipped {
		t.AppendRow(table.Row{name, "-", "❌ no match"})
	}
	for _, pkg := range result.Workspace {
		t.AppendRow(table.Row{pkg.Name, "workspace:" + pkg.Version, "workspace"})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	if result.Applied {
		fmt.Fprintf(w, "\n✅ Updated %d package(s)\n", len(result.Specs))
	} else {
		fmt.Fprintf(w, "\n🔍 Dry run, %d update spec(s) not applied\n", len(result.Specs))
	}
	return nil
}

func encodeJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func encodeYAML(w io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}
