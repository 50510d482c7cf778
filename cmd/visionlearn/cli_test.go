package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/visionlearn/internal/acquire"
	"github.com/example/visionlearn/internal/appstate"
	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/capture"
	"github.com/example/visionlearn/internal/config"
	"github.com/example/visionlearn/internal/history"
	"github.com/example/visionlearn/internal/lesson"
)

var green = color.RGBA{0, 200, 0, 255}

func testRoot(t *testing.T) (*root, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.New()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.json")
	cfg.AI.APIKeyEnv = "VISIONLEARN_TEST_API_KEY"
	t.Setenv(cfg.AI.APIKeyEnv, "")
	var out, errOut bytes.Buffer
	return &root{program: "visionlearn", config: cfg, stdout: &out, stderr: &errOut}, &out, &errOut
}

// writeSource writes a green 640x480 PNG and returns its path.
func writeSource(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	draw.Draw(img, img.Bounds(), image.NewUniform(green), image.Point{}, draw.Src)
	data, err := canvas.EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readImage(t *testing.T, path string) *image.RGBA {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	img, err := canvas.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func isRed(c color.RGBA) bool {
	return c.R > 200 && c.G < 100 && c.B < 100
}

func isGreen(c color.RGBA) bool {
	d := int(c.G) - int(green.G)
	return c.R < 3 && c.B < 3 && d <= 2 && d >= -2
}

// geminiServer replies to every request with text.
func geminiServer(t *testing.T, r *root, text string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.Copy(io.Discard, req.Body)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	r.config.AI.Endpoint = srv.URL
	t.Setenv(r.config.AI.APIKeyEnv, "test-key")
}

func TestParseEditOps(t *testing.T) {
	ops, err := parseEditOps(strings.Fields("rect 1 2 3 4 undo pen 0 0 5 5 9 9 crop 0 0 100 100"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("ops = %+v", ops)
	}
	if ops[0].name != "rect" || ops[0].pts[1] != (canvas.Point{X: 3, Y: 4}) {
		t.Fatalf("rect = %+v", ops[0])
	}
	if ops[1].name != "undo" || len(ops[1].pts) != 0 {
		t.Fatalf("undo = %+v", ops[1])
	}
	if ops[2].name != "pen" || len(ops[2].pts) != 3 {
		t.Fatalf("pen = %+v", ops[2])
	}

	bad := []string{"rect 1 2 3", "pen 1 2 3 4 5", "pen 1 2", "blur 1 2", "undo 3", "crop 1 2 3 4 5"}
	for _, b := range bad {
		if _, err := parseEditOps(strings.Fields(b)); err == nil {
			t.Errorf("%q: expected error", b)
		}
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("640x360")
	if err != nil || w != 640 || h != 360 {
		t.Fatalf("parseSize = %v %v %v", w, h, err)
	}
	for _, s := range []string{"640", "0x10", "axb", "1x2x3"} {
		if _, _, err := parseSize(s); err == nil {
			t.Errorf("%q: expected error", s)
		}
	}
}

func TestEditRequiresFile(t *testing.T) {
	r, _, _ := testRoot(t)
	_, err := parseEditCmd([]string{"rect", "0", "0", "1", "1"}, r)
	if err == nil || !strings.Contains(err.Error(), "input file is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestEditDrawsRectangle(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"canvas units", []string{"rect", "300", "200", "500", "400"}},
		{"display units", []string{"-display", "640x360", "rect", "150", "100", "250", "200"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, errOut := testRoot(t)
			in := writeSource(t)
			out := filepath.Join(t.TempDir(), "out.png")
			args := append([]string{"-file", in, "-output", out}, tc.args...)
			cmd, err := parseEditCmd(args, r)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if err := cmd.Run(); err != nil {
				t.Fatalf("run: %v", err)
			}
			img := readImage(t, out)
			if img.Bounds().Dx() != 1280 || img.Bounds().Dy() != 720 {
				t.Fatalf("output %v, want the canvas size", img.Bounds())
			}
			if c := img.RGBAAt(400, 200); !isRed(c) {
				t.Fatalf("stroke pixel = %v", c)
			}
			if c := img.RGBAAt(400, 300); !isGreen(c) {
				t.Fatalf("inside pixel = %v", c)
			}
			if !strings.Contains(errOut.String(), "saved ") {
				t.Fatalf("stderr = %q", errOut.String())
			}
		})
	}
}

func TestEditUndo(t *testing.T) {
	r, _, _ := testRoot(t)
	in := writeSource(t)
	out := filepath.Join(t.TempDir(), "out.png")
	cmd, err := parseEditCmd([]string{"-file", in, "-output", out, "rect", "300", "200", "500", "400", "undo"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c := readImage(t, out).RGBAAt(400, 200); !isGreen(c) {
		t.Fatalf("undone stroke still drawn: %v", c)
	}
}

func TestEditCropTooSmall(t *testing.T) {
	r, _, _ := testRoot(t)
	in := writeSource(t)
	cmd, err := parseEditCmd([]string{"-file", in, "-output", filepath.Join(t.TempDir(), "o.png"), "crop", "100", "100", "105", "300"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if !errors.Is(err, canvas.ErrNoCropRegion) || !strings.Contains(err.Error(), "smaller than 10x10") {
		t.Fatalf("err = %v", err)
	}
}

func TestSessionScript(t *testing.T) {
	r, out, _ := testRoot(t)
	in := writeSource(t)
	saved := filepath.Join(t.TempDir(), "cropped.png")
	args := []string{"-file", in}
	for _, line := range []string{
		"tool crop", "down 160 0", "move 500 300", "up 1120 720", "state",
		"confirm", "state", "save " + saved, "exit", "state",
	} {
		args = append(args, "-e", line)
	}
	cmd, err := parseSessionCmd(args, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"state=acquiring tool=crop annotations=0 crop=160,0,960x720 source=640x480\n",
		"cropped to 640x480\n",
		"state=idle tool=rect annotations=0 source=640x480\n",
		"saved " + saved + "\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "state=") != 2 {
		t.Fatalf("commands after exit ran:\n%s", got)
	}
}

func TestSessionStdin(t *testing.T) {
	r, out, errOut := testRoot(t)
	cmd, err := parseSessionCmd(nil, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cmd.stdin = strings.NewReader("down 1 1\nbogus\nstate\n")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errOut.String(), "load an image first") {
		t.Fatalf("stderr = %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), `unknown command "bogus"`) {
		t.Fatalf("stderr = %q", errOut.String())
	}
	if !strings.Contains(out.String(), "state=idle tool=rect annotations=0 source=none") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestFit(t *testing.T) {
	r, out, _ := testRoot(t)
	cmd, err := parseFitCmd([]string{"640", "480"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := out.String(), "ratio=1.5 draw=960x720 offset=160,0\n"; got != want {
		t.Fatalf("fit = %q, want %q", got, want)
	}

	cmd, _ = parseFitCmd([]string{"0", "480"}, r)
	if err := cmd.Run(); !errors.Is(err, canvas.ErrDegenerateGeometry) {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	r, out, _ := testRoot(t)
	geminiServer(t, r, "```json\n[\"Sun\", \"Rain\"]\n```")
	cmd, err := parseAnalyzeCmd([]string{"-file", writeSource(t)}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "Sun\nRain\n" {
		t.Fatalf("topics = %q", got)
	}
}

func TestLessonWritesPageAndHistory(t *testing.T) {
	r, out, _ := testRoot(t)
	geminiServer(t, r, "<html>weather</html>")
	page := filepath.Join(t.TempDir(), "pages", "weather.html")
	cmd, err := parseLessonCmd([]string{"-topics", "Sun, Rain,", "-type", "text", "-output", page, "-file", writeSource(t)}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != page+"\n" {
		t.Fatalf("stdout = %q", got)
	}
	if data, _ := os.ReadFile(page); string(data) != "<html>weather</html>" {
		t.Fatalf("page = %q", data)
	}

	store := history.NewFileStore(r.config.History.Path, 50, nil)
	entries, err := store.List(context.Background())
	if err != nil || len(entries) != 1 {
		t.Fatalf("history = %+v, %v", entries, err)
	}
	if strings.Join(entries[0].Topics, ",") != "Sun,Rain" || entries[0].Type != "text" || entries[0].Thumbnail == "" {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestLessonFromHistory(t *testing.T) {
	r, _, errBuf := testRoot(t)
	geminiServer(t, r, "<html>again</html>")
	store := history.NewFileStore(r.config.History.Path, 50, nil)
	past := history.NewEntry([]string{"Rain", "Clouds"}, "<p>rain</p>", "", "dialogue")
	if err := store.Add(context.Background(), past); err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(t.TempDir(), "again.html")
	cmd, err := parseLessonCmd([]string{"-from-history", past.ID, "-output", page}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errBuf.String(), "restored "+past.ID+": Rain, Clouds") {
		t.Fatalf("stderr = %q", errBuf.String())
	}
	entries, err := store.List(context.Background())
	if err != nil || len(entries) != 2 {
		t.Fatalf("history = %+v, %v", entries, err)
	}
	if got := entries[0]; strings.Join(got.Topics, ",") != "Rain,Clouds" || got.Type != "dialogue" || got.ID == past.ID {
		t.Fatalf("new entry = %+v", got)
	}

	cmd, err = parseLessonCmd([]string{"-from-history", "missing", "-output", page}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLessonWithoutKey(t *testing.T) {
	r, _, _ := testRoot(t)
	cmd, err := parseLessonCmd([]string{"-topics", "Sun"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, lesson.ErrNoAPIKey) {
		t.Fatalf("err = %v", err)
	}
}

func TestLessonParseErrors(t *testing.T) {
	r, _, _ := testRoot(t)
	if _, err := parseLessonCmd([]string{"-topics", " , "}, r); err == nil || !strings.Contains(err.Error(), "at least one topic") {
		t.Fatalf("err = %v", err)
	}
	if _, err := parseLessonCmd([]string{"-topics", "a", "-from-history", "x"}, r); err == nil || !strings.Contains(err.Error(), "exclusive") {
		t.Fatalf("err = %v", err)
	}
	if _, err := parseLessonCmd([]string{"-topics", "a", "-type", "poster"}, r); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestExport(t *testing.T) {
	tests := []struct {
		output string
		args   []string
		prefix string
	}{
		{"out.png", nil, "\x89PNG"},
		{"out.pdf", []string{"-topics", "Sun,Rain", "-shadow"}, "%PDF-"},
		{"out.bin", []string{"-format", "pdf"}, "%PDF-"},
	}
	for _, tc := range tests {
		t.Run(tc.output, func(t *testing.T) {
			r, _, _ := testRoot(t)
			out := filepath.Join(t.TempDir(), tc.output)
			args := append([]string{"-file", writeSource(t), "-output", out}, tc.args...)
			cmd, err := parseExportCmd(args, r)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if err := cmd.Run(); err != nil {
				t.Fatalf("run: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.HasPrefix(data, []byte(tc.prefix)) {
				t.Fatalf("output starts with %q", data[:8])
			}
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	r, _, _ := testRoot(t)
	if _, err := parseExportCmd([]string{"-file", "in.png", "-output", "out.gif"}, r); err == nil {
		t.Fatalf("expected error")
	}
}

func runHistory(t *testing.T, r *root, args ...string) error {
	t.Helper()
	cmd, err := parseHistoryCmd(args, r)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd.Run()
}

func TestHistoryCommands(t *testing.T) {
	r, out, _ := testRoot(t)
	store := history.NewFileStore(r.config.History.Path, 50, nil)
	first := history.NewEntry([]string{"Sun"}, "<p>sun</p>", "", "svg")
	second := history.NewEntry([]string{"Rain", "Clouds"}, "<p>rain</p>", "", "text")
	for _, e := range []history.Entry{first, second} {
		if err := store.Add(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	if err := runHistory(t, r, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], second.ID) || !strings.Contains(lines[0], "Rain, Clouds") {
		t.Fatalf("list = %q", out.String())
	}

	out.Reset()
	if err := runHistory(t, r, "show", first.ID); err != nil {
		t.Fatalf("show: %v", err)
	}
	if out.String() != "<p>sun</p>\n" {
		t.Fatalf("show = %q", out.String())
	}

	if err := runHistory(t, r, "delete", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := runHistory(t, r, "show", first.ID); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("show deleted: %v", err)
	}
	if err := runHistory(t, r, "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if entries, _ := store.List(context.Background()); len(entries) != 0 {
		t.Fatalf("entries after clear = %d", len(entries))
	}
}

func TestHistoryParseErrors(t *testing.T) {
	r, _, _ := testRoot(t)
	for _, args := range [][]string{nil, {"show"}, {"purge"}, {"list", "x"}} {
		if _, err := parseHistoryCmd(args, r); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestAnnotateSourcesAreExclusive(t *testing.T) {
	r, _, _ := testRoot(t)
	_, err := parseAnnotateCmd([]string{"-file", "a.png", "-capture"}, r)
	if err == nil || !strings.Contains(err.Error(), "exclusive") {
		t.Fatalf("err = %v", err)
	}
}

func TestAnnotateRunCaptureError(t *testing.T) {
	original := fromCaptureFn
	sentinel := errors.New("denied")
	fromCaptureFn = func(context.Context, capture.Options) (acquire.Source, error) { return acquire.Source{}, sentinel }
	t.Cleanup(func() { fromCaptureFn = original })

	r, _, _ := testRoot(t)
	cmd := &annotateCmd{capture: true, root: r}
	err := cmd.Run()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "failed to capture screen"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestAnnotateOpensWindow(t *testing.T) {
	original := runWindowFn
	var got *appstate.AppState
	runWindowFn = func(a *appstate.AppState) { got = a }
	t.Cleanup(func() { runWindowFn = original })

	r, _, _ := testRoot(t)
	cmd, err := parseAnnotateCmd([]string{"-file", writeSource(t), "-output", "mine.png"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got == nil {
		t.Fatalf("window not opened")
	}
	if got.Title != "VisionLearn - in.png" || got.Session.Output != "mine.png" {
		t.Fatalf("title %q output %q", got.Title, got.Session.Output)
	}
	if got.Session.Age != config.DefaultAge {
		t.Fatalf("age = %d", got.Session.Age)
	}
}

func TestConfigPrint(t *testing.T) {
	r, out, _ := testRoot(t)
	cmd, err := parseConfigCmd([]string{"print"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"[settings]\n", "age = 8\n", "[history]\n", "backend = file\n"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("config missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigSave(t *testing.T) {
	r, _, errOut := testRoot(t)
	r.configPath = filepath.Join(t.TempDir(), "conf", "visionlearn.rc")
	r.config.Settings.Age = 11
	cmd, _ := parseConfigCmd([]string{"save"}, r)
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	loaded, err := config.NewLoader("test", r.configPath).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Settings.Age != 11 {
		t.Fatalf("age = %d", loaded.Settings.Age)
	}
	if !strings.Contains(errOut.String(), r.configPath) {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestVersion(t *testing.T) {
	r, out, _ := testRoot(t)
	if err := (&versionCmd{root: r}).Run(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "visionlearn version dev\n" {
		t.Fatalf("version = %q", out.String())
	}
}

func TestHelpTemplates(t *testing.T) {
	r := newRoot()
	if msg := (&UsageError{of: r}).Error(); !strings.Contains(msg, "Commands:") || !strings.Contains(msg, "-theme") {
		t.Fatalf("root help = %q", msg)
	}
	helpOnce.Do(parseHelpTemplates)
	for _, name := range []string{
		"root.txt", "annotate.txt", "edit.txt", "session.txt", "fit.txt", "analyze.txt",
		"lesson.txt", "export.txt", "history.txt", "config.txt", "version.txt",
	} {
		if helpTmpl.Lookup(name) == nil {
			t.Errorf("missing help template %s", name)
		}
	}
	if msg := usageErrorf(r, "bad %s", "input").Error(); !strings.HasPrefix(msg, "bad input\n\n") {
		t.Fatalf("usage error = %q", msg)
	}
}

func TestAnnotateListMonitors(t *testing.T) {
	original := listMonitorsFn
	listMonitorsFn = func() ([]capture.MonitorInfo, error) {
		return []capture.MonitorInfo{
			{Index: 0, Name: "DP-1", Rect: image.Rect(0, 0, 1920, 1080), Primary: true},
			{Index: 1, Name: "HDMI-1", Rect: image.Rect(1920, 0, 3200, 1024)},
		}, nil
	}
	t.Cleanup(func() { listMonitorsFn = original })

	r, out, _ := testRoot(t)
	cmd, err := parseAnnotateCmd([]string{"-list-monitors"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "#0 DP-1 1920x1080+0+0 primary\n#1 HDMI-1 1280x1024+1920+0\n"
	if out.String() != want {
		t.Fatalf("monitors = %q, want %q", out.String(), want)
	}
}
