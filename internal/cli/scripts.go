package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/config"
	"github.com/survivalburger/storyteller/internal/i18n"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/script"
	"github.com/survivalburger/storyteller/internal/tui/components"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

var (
	scriptsDir   string
	scriptsPhase string
	scriptsLang  string
)

func init() {
	rootCmd.AddCommand(scriptsCmd)
	scriptsCmd.AddCommand(scriptsShowCmd)

	scriptsCmd.PersistentFlags().StringVar(&scriptsDir, "dir", "", "directory searched before the default script paths")
	scriptsCmd.Flags().StringVar(&scriptsPhase, "phase", "", "filter by phase (start, end)")
	scriptsCmd.Flags().StringVar(&scriptsLang, "lang", "", "filter by language (en, zh)")
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "List story line sets",
	Long: `List the line sets storyteller can play.

Scripts are resolved from --dir, ./.storyteller/scripts,
~/.config/storyteller/scripts, /usr/share/storyteller/scripts and the
built-in set, in that order. The first script for a phase and language wins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(currentConfig(), scriptsDir)
		if err != nil {
			return err
		}

		items, err := filterScripts(catalog.Scripts(), scriptsPhase, scriptsLang)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, items)
		}

		if len(items) == 0 {
			fmt.Println(components.EmptyScripts().Render(styles.DefaultStyles()))
			return nil
		}

		rows := make([][]string, 0, len(items))
		for _, s := range items {
			rows = append(rows, []string{
				formatPhase(s.Phase),
				string(s.Language),
				strconv.Itoa(len(s.Lines)),
				s.Title,
				s.Source,
			})
		}
		return writeTable(os.Stdout, []string{"PHASE", "LANG", "LINES", "TITLE", "SOURCE"}, rows)
	},
}

var scriptsShowCmd = &cobra.Command{
	Use:   "show <phase> [lang]",
	Short: "Print the rendered lines of a line set",
	Args:  cobra.RangeArgs(1, 2),
	Example: `  storyteller scripts show start
  storyteller scripts show end zh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()

		phase, err := models.ParsePhase(args[0])
		if err != nil {
			return err
		}
		lang := cfg.Dialogue.Language
		if len(args) > 1 {
			lang = args[1]
		}
		language := i18n.Select(lang)

		catalog, err := loadCatalog(cfg, scriptsDir)
		if err != nil {
			return err
		}
		set, err := catalog.LineSet(phase, language)
		if err != nil {
			return &PreflightError{
				Message:  fmt.Sprintf("no line set for %s/%s", phase, language),
				NextStep: "storyteller scripts",
				Err:      err,
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, set)
		}
		for i, line := range set.Lines {
			fmt.Printf("%2d  %s\n", i+1, line)
		}
		return nil
	},
}

func filterScripts(items []*script.Script, phase, lang string) ([]*script.Script, error) {
	var wantPhase models.Phase
	if phase != "" {
		p, err := models.ParsePhase(phase)
		if err != nil {
			return nil, err
		}
		wantPhase = p
	}
	var wantLang models.Language
	if lang != "" {
		l, err := models.ParseLanguage(lang)
		if err != nil {
			return nil, err
		}
		wantLang = l
	}

	filtered := make([]*script.Script, 0, len(items))
	for _, s := range items {
		if wantPhase != "" && s.Phase != wantPhase {
			continue
		}
		if wantLang != "" && s.Language != wantLang {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered, nil
}

func currentConfig() *config.Config {
	if cfg := GetConfig(); cfg != nil {
		return cfg
	}
	defaults := config.DefaultConfig()
	return &defaults
}
