package components

import (
	"strings"
	"testing"

	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

func enabledKeys(actions []QuickAction) []string {
	var keys []string
	for _, a := range actions {
		if a.Enabled {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

func TestPlayerQuickActions(t *testing.T) {
	labels := models.DefaultLabels(models.LanguageEnglish)

	tests := []struct {
		name  string
		state models.RevealState
		ack   bool
		want  string
	}{
		{"idle", models.RevealIdle, false, "q"},
		{"revealing", models.RevealRevealing, false, "s,l,q"},
		{"awaiting", models.RevealAwaitingContinue, false, "enter,s,l,q"},
		{"acknowledging", models.RevealAwaitingContinue, true, "s,l,q"},
		{"finished", models.RevealFinished, false, "l,q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(enabledKeys(PlayerQuickActions(tt.state, labels, tt.ack)), ",")
			if got != tt.want {
				t.Fatalf("enabled keys = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPlayerHintUsesLabels(t *testing.T) {
	styleSet := styles.DefaultStyles()
	labels := models.DefaultLabels(models.LanguageChinese)

	out := RenderPlayerHint(styleSet, models.RevealAwaitingContinue, labels, false, 0)
	if !strings.Contains(out, labels.Continue) || !strings.Contains(out, labels.Skip) {
		t.Fatalf("expected localized labels in %q", out)
	}

	if RenderQuickActionBar(styleSet, []QuickAction{{Key: "x", Label: "Off"}}) != "" {
		t.Fatal("expected empty bar when nothing is enabled")
	}
}
