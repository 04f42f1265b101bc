package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecraft/internal/element"
	"sitecraft/internal/engine"
	"sitecraft/internal/models"
	"sitecraft/internal/schema"
)

type fakeWebsites map[uuid.UUID]*models.Website

func (f fakeWebsites) FindByID(_ context.Context, id uuid.UUID) (*models.Website, error) {
	return f[id], nil
}

type fakeDocuments map[uuid.UUID]*element.Library

func (f fakeDocuments) Load(_ context.Context, id uuid.UUID) (*element.Library, error) {
	return f[id], nil
}

func TestSchemaCommandCatalog(t *testing.T) {
	cmd := SchemaCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var views []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	assert.NotEmpty(t, views)
}

func TestSchemaCommandDescribe(t *testing.T) {
	cmd := SchemaCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--type", "text", "--subtype", "H1"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"H1"`)

	cmd = SchemaCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--type", "carousel"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, schema.ErrUnknownType)
}

func TestValidateUser(t *testing.T) {
	role, err := validateUser("ana@example.com", "long-enough", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	_, err = validateUser("not-an-email", "long-enough", "member")
	assert.Error(t, err)
	_, err = validateUser("ana@example.com", "short", "member")
	assert.Error(t, err)
	_, err = validateUser("ana@example.com", "long-enough", "owner")
	assert.Error(t, err)
}

func TestExportWritesIndex(t *testing.T) {
	id := uuid.New()
	site := &models.Website{ID: id, Name: "Acme", Slug: "acme", LastModified: time.Now()}
	lib := element.New()
	title := &element.Instance{ID: "title", Type: schema.TypeText, Subtype: "H1", Content: "Welcome", Config: element.Config{}}
	lib.ByID[title.ID] = title
	lib.AllIDs = []string{title.ID}

	dir := filepath.Join(t.TempDir(), "dist")
	path, err := Export(context.Background(), fakeWebsites{id: site}, fakeDocuments{id: lib}, engine.New(schema.Builtin()), id, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.html"), path)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Acme</title>")
	assert.Contains(t, string(page), "Welcome</h1>")
}

func TestExportMissingWebsite(t *testing.T) {
	_, err := Export(context.Background(), fakeWebsites{}, fakeDocuments{}, engine.New(schema.Builtin()), uuid.New(), t.TempDir())
	assert.ErrorContains(t, err, "not found")
}
