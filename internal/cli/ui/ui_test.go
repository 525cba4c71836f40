package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/scene"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		opts     MessageOptions
		contains []string
	}{
		{
			name:     "error with context",
			opts:     MessageOptions{Level: LevelError, Context: "scene failed: a.yaml", Problem: "bad yaml"},
			contains: []string{"❌ SCENE FAILED: A.YAML\n", "   bad yaml\n"},
		},
		{
			name:     "suggestions",
			opts:     MessageOptions{Problem: "x", Suggestions: []string{"Body", "Team"}},
			contains: []string{"Did you mean: Body, Team?"},
		},
		{
			name:     "help commands",
			opts:     MessageOptions{Problem: "x", HelpCommands: []string{"List kinds: refwire kinds"}},
			contains: []string{"→ List kinds: refwire kinds"},
		},
		{
			name:     "warning",
			opts:     MessageOptions{Level: LevelWarning, Problem: "careful"},
			contains: []string{"⚠️ careful"},
		},
		{
			name:     "info with consequence",
			opts:     MessageOptions{Level: LevelInfo, Problem: "note", Consequence: "nothing changed"},
			contains: []string{"ℹ️ note", "\n   nothing changed\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatMessage(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestUnknownKindError(t *testing.T) {
	out := UnknownKindError("level.yaml", "Turet", []string{"Body", "Turret", "Team"}, true)
	assert.Contains(t, out, "UNKNOWN KIND: TURET")
	assert.Contains(t, out, "Did you mean: Turret?")
	assert.Contains(t, out, "refwire kinds")
}

func TestSceneAndConfigErrors(t *testing.T) {
	assert.Contains(t, SceneError("a.yaml", errors.New("boom"), true), "   boom\n")
	assert.Contains(t, ConfigError("output.format must be text or json", true), "refwire.yaml")
	assert.Contains(t, Warning("w", true), "⚠️ w")
}

func TestSuggest(t *testing.T) {
	kinds := []string{"Body", "Collider", "Team", "Health", "Weapon", "Turret"}
	assert.Equal(t, []string{"Turret"}, Suggest("turet", kinds, 3))
	assert.Equal(t, []string{"Body"}, Suggest("BODY", kinds, 3))
	assert.Empty(t, Suggest("Spaceship", kinds, 3))
	assert.Len(t, Suggest("Tea", []string{"Team", "Tee", "Teal", "Tear"}, 2), 2)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "KIND", "FIELDS")
	table.AddRow("Turret", "4")
	table.AddRow("Body")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"KIND    FIELDS",
		"──────  ──────",
		"Turret  4",
		"Body    ",
	}, lines)
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Version", "1.0")
	kv.AddRow("Go", "go1.23")
	kv.Render()
	assert.Equal(t, "Version: 1.0\nGo:      go1.23\n", buf.String())
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 2, "validating", true)
	bar.Step("a.yaml")
	bar.Step("b.yaml")
	bar.Step("extra")
	bar.Finish()

	out := buf.String()
	assert.Contains(t, out, "1/2 validating a.yaml")
	assert.Contains(t, out, "["+strings.Repeat("█", 30)+"] 2/2 validating b.yaml")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	RenderDiagnostics(&buf, "a.yaml", &diag.List{}, true)
	assert.Empty(t, buf.String())

	list := &diag.List{}
	list.Add(diag.Diagnostic{
		Node:     scene.NewNode("tower"),
		Host:     "Turret",
		Field:    "body",
		Kind:     diag.MissingRequiredReference,
		Severity: diag.SeverityError,
		Detail:   "no Body found",
	})
	list.Add(diag.Diagnostic{Host: "Item", Kind: diag.NoDeclaredReferences, Severity: diag.SeverityWarning})
	RenderDiagnostics(&buf, "a.yaml", list, true)

	out := buf.String()
	assert.Contains(t, out, "a.yaml\n")
	assert.Contains(t, out, "✗ error   tower Turret.body [MissingRequiredReference] no Body found\n")
	assert.Contains(t, out, "⚠ warning <detached> Item [NoDeclaredReferences]\n")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, Summary{Scenes: 2, Hosts: 5, Repaired: 1}, true)
	assert.Equal(t, "✓ 2 scene(s), 5 host(s), 0 error(s), 0 warning(s), 1 repaired\n", buf.String())

	buf.Reset()
	RenderSummary(&buf, Summary{Scenes: 1, Errors: 2, Failed: 1}, true)
	assert.Equal(t, "✗ 1 scene(s), 0 host(s), 2 error(s), 0 warning(s), 0 repaired, 1 failed\n", buf.String())
}
