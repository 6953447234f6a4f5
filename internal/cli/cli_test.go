package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/annograph/pkg/config"
	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/pipeline"
)

func TestTraverseFormats(t *testing.T) {
	tests := []struct {
		name  string
		flags traverseFlags
		want  string
	}{
		{"summary only", traverseFlags{}, ""},
		{"json", traverseFlags{json: true}, "json"},
		{"files", traverseFlags{dot: "g.dot", svg: "g.svg"}, "dot,svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(traverseFormats(tt.flags), ","); got != tt.want {
				t.Errorf("traverseFormats() = %q, want %q", got, tt.want)
			}
			if err := pipeline.ValidateFormats(traverseFormats(tt.flags)); err != nil {
				t.Errorf("formats rejected by pipeline: %v", err)
			}
		})
	}
}

func quietCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annograph.toml")

	root := quietCLI().RootCommand()
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	root = quietCLI().RootCommand()
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init error = %v, want INVALID_INPUT", err)
	}

	c := quietCLI()
	c.configPath = path
	var out bytes.Buffer
	if err := c.showConfig(&out); err != nil {
		t.Fatalf("showConfig() error: %v", err)
	}
	if !strings.Contains(out.String(), "[fetch]") || !strings.Contains(out.String(), "probe_concurrency") {
		t.Errorf("config show output:\n%s", out.String())
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	c := quietCLI()
	c.configPath = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("loadConfig() error = %v, want INVALID_CONFIG", err)
	}
}

func TestTraverseCommand(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anno" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/ld+json")
		fmt.Fprintf(w, `{
			"@context": {"oa": "http://www.w3.org/ns/oa#"},
			"@id": "%[1]s/anno",
			"@type": "oa:Annotation",
			"oa:hasTarget": {"@id": "%[1]s/score.mei#m7"}
		}`, srv.URL)
	}))
	defer srv.Close()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(configEnv, "")

	dir := t.TempDir()
	dot := filepath.Join(dir, "graph.dot")
	snapshot := filepath.Join(dir, "snapshot.json")

	root := quietCLI().RootCommand()
	root.SetArgs([]string{"traverse", srv.URL + "/anno", "--dot", dot, "--sink", snapshot, "--run-id", "cli-test"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("traverse: %v", err)
	}

	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatalf("dot file: %v", err)
	}
	if !strings.Contains(string(data), "score.mei") {
		t.Errorf("dot does not mention the target:\n%s", data)
	}
	data, err = os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("sink file: %v", err)
	}
	if !strings.Contains(string(data), `"cli-test"`) {
		t.Errorf("snapshot does not carry the run id")
	}

	root = quietCLI().RootCommand()
	root.SetArgs([]string{"traverse", srv.URL + "/missing"})
	if err := root.ExecuteContext(context.Background()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("traverse of a missing root: error = %v, want NOT_FOUND", err)
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := quietCLI().RootCommand()
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "annograph") {
				t.Errorf("%s script does not mention the command", shell)
			}
		})
	}

	root := quietCLI().RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("completion tcsh: expected an error")
	}
}
