package appregistry

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-appregistry/storage"
)

func adminStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(storage.NewMemory(), nil)
	s.SetAll([]Entry{
		{Key: "intranet", Label: "Intranet", Icon: "i.svg", Href: "https://intra"},
		{Key: "tool", Label: "Tool", Icon: "t.svg", Action: LocalAction{Path: "/opt/tool"}},
	}, SetAllOptions{Silent: true})
	return s
}

func TestAdminModel_ForcesLinkActions(t *testing.T) {
	m := NewAdminModel(adminStore(t))
	entries := m.Entries()
	require.Len(t, entries, 2)

	for _, e := range entries {
		_, ok := e.Action.(LinkAction)
		assert.True(t, ok, "%s should carry a link action, got %T", e.Key, e.Action)
	}

	tool, ok := m.Get("tool")
	require.True(t, ok)
	assert.Equal(t, "#", tool.Href)
	assert.Equal(t, LinkAction{URL: "#", Target: DefaultTarget, Rel: DefaultRel, Title: "Open Tool", AriaLabel: "Open Tool"}, tool.Action)
}

func TestAdminModel_UpsertAdd(t *testing.T) {
	s := adminStore(t)
	rec := &recorder{}
	s.Subscribe(rec.observe)
	m := NewAdminModel(s)

	key, err := m.Upsert(AppForm{Label: "  Time Sheets! ", Href: " https://time ", Icon: "ts.svg"})
	require.NoError(t, err)
	assert.Equal(t, "time-sheets", key)

	e, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "Time Sheets!", e.Label)
	assert.Equal(t, "https://time", e.Href)
	assert.Equal(t, LinkAction{URL: "https://time", Target: DefaultTarget, Rel: DefaultRel, Title: "Open Time Sheets!", AriaLabel: "Open Time Sheets!"}, e.Action)

	assert.Equal(t, 3, s.Len(), "model edits are written back to the store")
	assert.Zero(t, rec.count(), "write-back is silent")
}

func TestAdminModel_UpsertCollision(t *testing.T) {
	m := NewAdminModel(adminStore(t))

	key, err := m.Upsert(AppForm{Label: "Intranet", Href: "https://intra2"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^intranet-[0-9a-f]{4}$`), key)

	other, err := m.Upsert(AppForm{Label: "***", Href: "wiki/home"})
	require.NoError(t, err)
	assert.Equal(t, "app", other)
}

func TestAdminModel_UpsertEdit(t *testing.T) {
	m := NewAdminModel(adminStore(t))

	key, err := m.Upsert(AppForm{Key: "intranet", Label: "Intranet 2", Href: "https://intra2"})
	require.NoError(t, err)
	assert.Equal(t, "intranet", key)

	e, _ := m.Get("intranet")
	assert.Equal(t, "Intranet 2", e.Label)
	assert.Equal(t, "i.svg", e.Icon, "empty icon keeps the current one")
	assert.Equal(t, "https://intra2", e.Action.(LinkAction).URL)
	assert.Equal(t, "Intranet", e.Action.(LinkAction).Title, "existing link title is kept")

	_, err = m.Upsert(AppForm{Key: "intranet", Label: "I", Href: "https://i", Icon: "new.svg"})
	require.NoError(t, err)
	e, _ = m.Get("intranet")
	assert.Equal(t, "new.svg", e.Icon)
}

func TestAdminModel_UpsertErrors(t *testing.T) {
	m := NewAdminModel(adminStore(t))

	_, err := m.Upsert(AppForm{Label: "  ", Href: "https://a"})
	assert.ErrorIs(t, err, ErrLabelRequired)

	_, err = m.Upsert(AppForm{Label: "A", Href: ""})
	assert.ErrorIs(t, err, ErrURLRequired)

	_, err = m.Upsert(AppForm{Label: "A", Href: "ftp://x"})
	assert.ErrorIs(t, err, ErrURLUnrecognized)

	_, err = m.Upsert(AppForm{Key: "missing", Label: "A", Href: "https://a"})
	assert.ErrorIs(t, err, ErrUnknownKey)

	assert.Len(t, m.Entries(), 2, "failed upserts change nothing")
}

func TestAdminModel_SetURLAndRemove(t *testing.T) {
	s := adminStore(t)
	m := NewAdminModel(s)

	require.NoError(t, m.SetURL("tool", "tools/tool.exe"))
	e, _ := m.Get("tool")
	assert.Equal(t, "tools/tool.exe", e.Href)
	assert.Equal(t, "tools/tool.exe", EffectiveURL(e))

	assert.ErrorIs(t, m.SetURL("tool", "https://"), ErrURLInvalidHTTP)
	assert.ErrorIs(t, m.SetURL("nope", "https://a"), ErrUnknownKey)

	require.NoError(t, m.Remove("intranet"))
	assert.ErrorIs(t, m.Remove("intranet"), ErrUnknownKey)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "tool", s.All()[0].Key)
}

func TestAdminModel_SaveAndSourceLabel(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	s := NewStore(st, nil)
	r := NewResolver(s, []Source{NewBundledSource("d.json", []byte(bundledDoc))}, true, nil)
	r.Load(ctx)

	m := NewAdminModel(s)
	assert.Equal(t, "Bundled defaults", m.SourceLabel())

	_, err := m.Upsert(AppForm{Label: "Wiki", Href: "wiki/home", Icon: "w.svg"})
	require.NoError(t, err)
	require.True(t, m.Save(ctx))
	assert.Equal(t, "Local override", m.SourceLabel())
	assert.Equal(t, ProvenanceLocalOverride, s.Status().Source)

	// The saved override wins on the next load.
	next := NewStore(st, nil)
	NewResolver(next, []Source{NewOverrideSource(st)}, true, nil).Load(ctx)
	assert.Equal(t, 2, next.Len())
}

func TestAdminModel_Export(t *testing.T) {
	m := NewAdminModel(adminStore(t))
	x := NewExporter(NewStore(nil, nil), nil, fixedClock, nil)

	b, err := m.Export(context.Background(), x)
	require.NoError(t, err)
	assert.Len(t, b.Document.Apps, 2)
}

func TestSourceLabel(t *testing.T) {
	tests := map[Provenance]string{
		ProvenanceNone:          "Defaults",
		ProvenanceNetwork:       "Shared registry",
		ProvenanceLocalOverride: "Local override",
		ProvenanceBundled:       "Bundled defaults",
		ProvenanceDefaults:      "Built-in list",
		ProvenanceUserImport:    "Imported file",
		Provenance("custom"):    "custom",
	}
	for p, want := range tests {
		assert.Equal(t, want, SourceLabel(p))
	}
}

func TestIconDataURI(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")

	got := IconDataURI("logo.PNG", png)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png), got)

	sniffed := IconDataURI("upload", png)
	assert.True(t, strings.HasPrefix(sniffed, "data:image/png;base64,"), sniffed)

	svg := IconDataURI("icon.svg", []byte("<svg/>"))
	assert.True(t, strings.HasPrefix(svg, "data:image/svg+xml;base64,"), svg)
}
