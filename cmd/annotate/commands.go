package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wiki-annotator/internal/annotator"
	"wiki-annotator/internal/domain"
	"wiki-annotator/internal/selection"
)

// restoreConcurrency bounds how many pages are restored at once.
const restoreConcurrency = 4

// --- highlight ---

var highlightCmd = &cobra.Command{
	Use:   "highlight <page.html>",
	Short: "Highlight a passage of a saved page and store it",
	Long: `Highlight a passage of a saved page and store it as a note.

Existing highlights are restored first so overlapping selections are rejected.

Examples:
  annotate highlight fox.html --text "quick brown fox" --color blue
  annotate highlight fox.html --text "the" --occurrence 2 --note "second one" -o fox.annotated.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		occurrence, _ := cmd.Flags().GetInt("occurrence")
		color, _ := cmd.Flags().GetString("color")
		note, _ := cmd.Flags().GetString("note")
		pageURL, _ := cmd.Flags().GetString("url")
		output, _ := cmd.Flags().GetString("output")

		if text == "" {
			return fmt.Errorf("--text is required")
		}
		if err := requireAPI(); err != nil {
			return err
		}

		p, err := loadPage(args[0], containerClass, pageURL)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		session := annotator.NewSession(p.container, p.url, newNotesClient(), newLogger(),
			annotator.WithNotifier(terminalNotifier{}))
		if _, err := session.Restore(ctx); err != nil {
			return fmt.Errorf("loading existing highlights: %w", err)
		}

		ev, err := selectQuote(session.Container(), text, occurrence)
		if err != nil {
			return err
		}
		switch action := session.HandleSelection(ev); action.Kind {
		case selection.ActionCreate:
		case selection.ActionEdit:
			return fmt.Errorf("text is already highlighted (%s); use edit instead", action.AnnotationID)
		default:
			return fmt.Errorf("text cannot be highlighted")
		}

		a, err := session.CreateHighlight(ctx, domain.Color(color), note)
		if err != nil {
			return err
		}

		rendered, err := session.HTML()
		if err != nil {
			return err
		}
		if err := writeOutput(output, rendered); err != nil {
			return err
		}
		printSuccess("Highlighted %q as note %s", a.Anchor.QuotedText, a.ServerID)
		return nil
	},
}

func init() {
	highlightCmd.Flags().String("text", "", "passage to highlight")
	highlightCmd.Flags().Int("occurrence", 1, "which occurrence of the passage to highlight")
	highlightCmd.Flags().String("color", string(domain.DefaultColor), "highlight color (yellow, blue, green)")
	highlightCmd.Flags().String("note", "", "note attached to the highlight")
	highlightCmd.Flags().String("url", "", "page URL (default: the page's canonical link)")
	highlightCmd.Flags().StringP("output", "o", "", "write the annotated page here instead of stdout")
}

// --- restore ---

type restoreResult struct {
	path    string
	report  annotator.ResolveReport
	drifted []string
}

var restoreCmd = &cobra.Command{
	Use:   "restore <page.html>...",
	Short: "Re-apply stored highlights to saved pages",
	Long: `Re-apply stored highlights to one or more saved pages.

Each page is matched against the notes stored for its canonical URL.

Examples:
  annotate restore fox.html --url https://en.wikipedia.org/wiki/Fox -o fox.annotated.html
  annotate restore pages/*.html --out-dir annotated --check`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("url")
		output, _ := cmd.Flags().GetString("output")
		outDir, _ := cmd.Flags().GetString("out-dir")
		check, _ := cmd.Flags().GetBool("check")

		if pageURL != "" && len(args) > 1 {
			return fmt.Errorf("--url can only be used with a single page")
		}
		if output != "" && len(args) > 1 {
			return fmt.Errorf("--output can only be used with a single page; use --out-dir")
		}
		if err := requireAPI(); err != nil {
			return err
		}

		api := newNotesClient()
		log := newLogger()

		results := make([]restoreResult, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(restoreConcurrency)
		for i, path := range args {
			g.Go(func() error {
				p, err := loadPage(path, containerClass, pageURL)
				if err != nil {
					return err
				}
				session := annotator.NewSession(p.container, p.url, api, log,
					annotator.WithNotifier(terminalNotifier{}))
				report, err := session.Restore(ctx)
				if err != nil {
					return fmt.Errorf("restoring %s: %w", path, err)
				}

				res := restoreResult{path: path, report: report}
				if check {
					res.drifted = session.CheckIntegrity()
				}

				target := output
				if outDir != "" {
					target = filepath.Join(outDir, filepath.Base(path))
				}
				if target != "" || len(args) == 1 {
					rendered, err := session.HTML()
					if err != nil {
						return err
					}
					if err := writeOutput(target, rendered); err != nil {
						return err
					}
				}

				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, res := range results {
			printRestoreResult(res)
		}
		return nil
	},
}

func printRestoreResult(res restoreResult) {
	r := res.report
	printSuccess("%s: restored %d of %d highlights", res.path, r.Restored, r.Total)
	if r.Unresolved > 0 {
		printWarning("%s: %d highlight(s) no longer match the page", res.path, r.Unresolved)
	}
	if r.Overlapping > 0 {
		printWarning("%s: %d highlight(s) overlap another and were skipped", res.path, r.Overlapping)
	}
	if r.Failed > 0 {
		printError("%s: %d highlight(s) failed to render", res.path, r.Failed)
	}
	for _, id := range res.drifted {
		printWarning("%s: highlight %s does not match its stored text", res.path, id)
	}
}

func init() {
	restoreCmd.Flags().String("url", "", "page URL (default: the page's canonical link)")
	restoreCmd.Flags().StringP("output", "o", "", "write the annotated page here instead of stdout")
	restoreCmd.Flags().String("out-dir", "", "write annotated pages into this directory")
	restoreCmd.Flags().Bool("check", false, "report highlights whose text drifted from the stored quote")
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored notes",
	Long: `List stored notes, newest first, or the notes of one page.

Examples:
  annotate list
  annotate list --url https://en.wikipedia.org/wiki/Fox --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL, _ := cmd.Flags().GetString("url")
		asJSON, _ := cmd.Flags().GetBool("json")

		if err := requireAPI(); err != nil {
			return err
		}

		api := newNotesClient()
		var (
			notes []*domain.Note
			err   error
		)
		if pageURL != "" {
			notes, err = api.ListPageNotes(cmd.Context(), pageURL)
		} else {
			notes, err = api.ListNotes(cmd.Context())
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}
		if len(notes) == 0 {
			printWarning("No notes found")
			return nil
		}
		return writeNotesTable(cmd.OutOrStdout(), notes)
	},
}

func writeNotesTable(w io.Writer, notes []*domain.Note) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOLOR\tPAGE\tTEXT\tNOTE")
	for _, n := range notes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			n.NoteID, n.HighlightColour, n.PageURL, truncate(n.HighlightedText, 40), truncate(n.NoteContent, 40))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func init() {
	listCmd.Flags().String("url", "", "only list notes of this page")
	listCmd.Flags().Bool("json", false, "print notes as JSON")
}

// --- edit ---

var editCmd = &cobra.Command{
	Use:   "edit <note-id>",
	Short: "Change the note text or color of a stored highlight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		color, _ := cmd.Flags().GetString("color")

		if !cmd.Flags().Changed("note") {
			return fmt.Errorf("--note is required (pass an empty value to clear it)")
		}
		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		if color != "" {
			if _, err := domain.ParseColor(color); err != nil {
				return err
			}
		}
		if err := requireAPI(); err != nil {
			return err
		}

		updated, err := newNotesClient().UpdateNote(cmd.Context(), id, note, domain.Color(color))
		if err != nil {
			return err
		}
		printSuccess("Updated note %d (%s)", updated.NoteID, updated.HighlightColour)
		return nil
	},
}

func init() {
	editCmd.Flags().String("note", "", "new note text")
	editCmd.Flags().String("color", "", "new highlight color (unchanged when empty)")

	deleteCmd.Flags().BoolP("yes", "y", false, "delete without asking for confirmation")
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <note-id>...",
	Short: "Delete stored highlights",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := parseNoteID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := requireAPI(); err != nil {
			return err
		}

		var confirmer annotator.Confirmer = annotator.AlwaysConfirm
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			confirmer = newPromptConfirmer(cmd.InOrStdin())
		}
		if !confirmer.Confirm(fmt.Sprintf("Delete %d note(s)?", len(ids))) {
			printWarning("Deletion cancelled, nothing was deleted")
			return nil
		}

		api := newNotesClient()
		failed := 0
		for _, id := range ids {
			if err := api.DeleteNote(cmd.Context(), id); err != nil {
				printError("Failed to delete note %d: %v", id, err)
				failed++
				continue
			}
			printSuccess("Deleted note %d", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d deletions failed", failed, len(ids))
		}
		return nil
	},
}

func parseNoteID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return id, nil
}
