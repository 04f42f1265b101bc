package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sitecraft/internal/element"
	"sitecraft/internal/engine"
	"sitecraft/internal/models"
	"sitecraft/internal/schema"
	"sitecraft/internal/store"
)

// WebsiteFinder loads website metadata. *store.WebsiteStore implements it.
type WebsiteFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Website, error)
}

// DocumentLoader loads a website's element library. *store.DocumentStore
// implements it.
type DocumentLoader interface {
	Load(ctx context.Context, websiteID uuid.UUID) (*element.Library, error)
}

// ExportCommand renders a stored website to a static index.html.
func ExportCommand(open opener) *cobra.Command {
	var websiteID, outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a website to a static HTML file",
		Long: `Render the stored document of a website to <out>/index.html.

Examples:
  sitectl export --website 7f9c0a3e-... --out ./dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(websiteID)
			if err != nil {
				return fmt.Errorf("invalid --website: %w", err)
			}
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			path, err := Export(cmd.Context(), store.NewWebsiteStore(db), store.NewDocumentStore(db),
				engine.New(schema.Builtin()), id, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&websiteID, "website", "", "Website id")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.MarkFlagRequired("website")
	return cmd
}

// Export renders website id into outDir/index.html and returns the path.
func Export(ctx context.Context, websites WebsiteFinder, documents DocumentLoader, eng *engine.Engine, id uuid.UUID, outDir string) (string, error) {
	w, err := websites.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", fmt.Errorf("website %s not found", id)
	}
	lib, err := documents.Load(ctx, id)
	if err != nil {
		return "", err
	}
	if lib == nil {
		return "", fmt.Errorf("website %s has no document", id)
	}

	page, err := eng.RenderPreview(w, lib)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, "index.html")
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
