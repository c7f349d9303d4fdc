package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/survivalburger/storyteller/internal/config"
	"github.com/survivalburger/storyteller/internal/db"
	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/events"
	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/scene"
	"github.com/survivalburger/storyteller/internal/script"
	"github.com/survivalburger/storyteller/internal/tui"
)

type staticLines []string

func (s staticLines) LineSet(phase models.Phase, lang models.Language) (models.LineSet, error) {
	return models.LineSet{Phase: phase, Language: lang, Lines: s}, nil
}

func testPlayback(source dialogue.LineSource, phase models.Phase, lang models.Language) playback {
	return playback{
		source:     source,
		dialogue:   dialogue.Config{Delays: map[models.Language]time.Duration{lang: 10 * time.Millisecond}},
		phase:      phase,
		language:   lang,
		router:     scene.NewRouter("", ""),
		transition: 50 * time.Millisecond,
		frame:      10 * time.Millisecond,
	}
}

func testPlayer(out *bytes.Buffer) plainPlayer {
	return plainPlayer{out: out, frame: 10 * time.Millisecond, pause: 20 * time.Millisecond}
}

func TestPlainPlayerPrintsLinesAndArrives(t *testing.T) {
	var out bytes.Buffer
	res, err := testPlayer(&out).play(context.Background(), testPlayback(staticLines{"Hello", "World"}, models.PhaseStart, models.LanguageEnglish))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if out.String() != "Hello\nWorld\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !res.Arrived || res.Destination != scene.DestinationGame {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Completion.LinesShown != 2 || res.Completion.Skipped {
		t.Fatalf("unexpected completion %+v", res.Completion)
	}
}

func TestPlainPlayerBuiltinChineseEnding(t *testing.T) {
	builtins, err := script.LoadBuiltinScripts()
	if err != nil {
		t.Fatalf("LoadBuiltinScripts: %v", err)
	}
	catalog := script.NewCatalog(builtins, nil)
	set, err := catalog.LineSet(models.PhaseEnd, models.LanguageChinese)
	if err != nil {
		t.Fatalf("LineSet: %v", err)
	}

	var out bytes.Buffer
	res, err := testPlayer(&out).play(context.Background(), testPlayback(catalog, models.PhaseEnd, models.LanguageChinese))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if out.String() != strings.Join(set.Lines, "\n")+"\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if res.Destination != scene.DestinationMainMenu {
		t.Fatalf("destination = %q", res.Destination)
	}
	if res.Completion.LinesShown != len(set.Lines) {
		t.Fatalf("lines shown = %d, want %d", res.Completion.LinesShown, len(set.Lines))
	}
}

func TestPlainPlayerEmptyLineSet(t *testing.T) {
	var out bytes.Buffer
	res, err := testPlayer(&out).play(context.Background(), testPlayback(staticLines{}, models.PhaseStart, models.LanguageEnglish))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out.String(), "no story lines") {
		t.Fatalf("expected empty notice, got %q", out.String())
	}
	if !res.Arrived || res.Completion.LinesTotal != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPlainPlayerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	res, err := testPlayer(&out).play(ctx, testPlayback(staticLines{"Hello"}, models.PhaseStart, models.LanguageEnglish))
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !res.Quit || res.Arrived {
		t.Fatalf("expected quit result, got %+v", res)
	}
	if out.String() != "H\n" {
		t.Fatalf("expected the partial line to be closed, got %q", out.String())
	}
}

func TestPlainPlayerRecordsRun(t *testing.T) {
	database := setupTestDB(t)
	eventRepo := db.NewEventRepository(database)
	runRepo := db.NewRunRepository(database)

	pb := testPlayback(staticLines{"One", "Two"}, models.PhaseEnd, models.LanguageEnglish)
	pb.recorder = events.NewRecorder(context.Background(), eventRepo, runRepo)

	var out bytes.Buffer
	res, err := testPlayer(&out).play(context.Background(), pb)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	record, err := runRepo.GetByRunID(context.Background(), res.Completion.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if record.Destination != scene.DestinationMainMenu || record.LinesShown != 2 {
		t.Fatalf("unexpected run record %+v", record)
	}

	logged, err := eventRepo.ListByEntity(context.Background(), models.EntityTypeRun, res.Completion.RunID, 10)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(logged) != 3 {
		t.Fatalf("expected 3 events, got %d", len(logged))
	}
}

func TestTypewriterSkipClosesLine(t *testing.T) {
	var out bytes.Buffer
	tw := &typewriter{out: &out}
	seq := dialogue.New(staticLines{"abc", "def"}, dialogue.DefaultConfig(), dialogue.WithSubscriber(tw))

	seq.Start(models.PhaseStart, models.LanguageEnglish)
	seq.Skip()

	if out.String() != "a\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestWritePlayResult(t *testing.T) {
	res := tui.Result{
		Completion: dialogue.Completion{
			RunID:      "run-1",
			Phase:      models.PhaseStart,
			Language:   models.LanguageEnglish,
			LinesShown: 6,
			LinesTotal: 6,
			Elapsed:    1500 * time.Millisecond,
		},
		Destination: scene.DestinationGame,
		Arrived:     true,
	}

	var human bytes.Buffer
	if err := writePlayResult(&human, res); err != nil {
		t.Fatalf("writePlayResult: %v", err)
	}
	if human.String() != "→ game\n" {
		t.Fatalf("unexpected output %q", human.String())
	}

	original := jsonOutput
	jsonOutput = true
	defer func() { jsonOutput = original }()

	var out bytes.Buffer
	if err := writePlayResult(&out, res); err != nil {
		t.Fatalf("writePlayResult: %v", err)
	}
	var decoded PlayResult
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Destination != "game" || decoded.Elapsed != "1.5s" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestDialogueConfigFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	dc := dialogueConfig(&cfg)

	if dc.Delay(models.LanguageEnglish) != 30*time.Millisecond {
		t.Fatalf("english delay = %v", dc.Delay(models.LanguageEnglish))
	}
	if dc.Delay(models.LanguageChinese) != 80*time.Millisecond {
		t.Fatalf("chinese delay = %v", dc.Delay(models.LanguageChinese))
	}
	if dc.AckDelay != cfg.Dialogue.AckDelay {
		t.Fatalf("ack delay = %v", dc.AckDelay)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "zh", "en"); got != "zh" {
		t.Fatalf("firstNonEmpty = %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("firstNonEmpty() = %q", got)
	}
}

func TestRunPlayContinuesWithoutEventLog(t *testing.T) {
	dir := t.TempDir()
	scriptsDir := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := "phase: start\nlanguage: en\nlines:\n  - \"Hi\"\n"
	if err := os.WriteFile(filepath.Join(scriptsDir, "start_en.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(blocker, "events.db")
	cfg.Dialogue.EnglishDelay = time.Millisecond
	cfg.Dialogue.AckDelay = 0
	cfg.Scene.TransitionDuration = 0
	cfg.TUI.FrameInterval = time.Millisecond

	originalConfig := appConfig
	appConfig = &cfg
	originalLogger := logging.Logger
	var logs bytes.Buffer
	if err := logging.Init(logging.Config{Level: "warn", Format: "json", Output: &logs}); err != nil {
		t.Fatalf("logging.Init: %v", err)
	}
	playPlain, playLang, playScriptsDir, playPause, playPhase = true, "en", scriptsDir, 0, "start"
	t.Cleanup(func() {
		appConfig = originalConfig
		logging.Logger = originalLogger
		playPlain, playLang, playScriptsDir, playPause, playPhase = false, "", "", 800*time.Millisecond, "start"
	})

	var out bytes.Buffer
	if err := runPlay(context.Background(), &out); err != nil {
		t.Fatalf("runPlay: %v", err)
	}

	if !strings.Contains(out.String(), "Hi\n") || !strings.Contains(out.String(), "→ game") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(logs.String(), "event log unavailable") {
		t.Fatalf("expected a warning about the event log, got %q", logs.String())
	}
}
