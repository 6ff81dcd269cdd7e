package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// yarnWorkspaces accepts both the array and the object form of the workspaces field.
type yarnWorkspaces struct {
	Packages []string
}

func (w *yarnWorkspaces) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		w.Packages = list
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return zerr.Wrap(err, "workspaces must be an array or an object with packages")
	}
	w.Packages = obj.Packages
	return nil
}

func yarnPackages(root string) ([]domain.PackageEntry, error) {
	path := filepath.Join(root, domain.ManifestFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the workspace root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read root manifest"), "path", path)
	}

	var manifest struct {
		Workspaces yarnWorkspaces `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse root manifest"), "path", path)
	}
	return expandPatterns(root, manifest.Workspaces.Packages)
}

func pnpmPackages(root string) ([]domain.PackageEntry, error) {
	path := filepath.Join(root, domain.PnpmWorkspaceFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the workspace root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read pnpm workspace"), "path", path)
	}

	var doc struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse pnpm workspace"), "path", path)
	}
	return expandPatterns(root, doc.Packages)
}

func rushPackages(root string) ([]domain.PackageEntry, error) {
	path := filepath.Join(root, domain.RushManifestFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the workspace root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read rush manifest"), "path", path)
	}

	var doc struct {
		Projects []struct {
			PackageName   string `json:"packageName"`
			ProjectFolder string `json:"projectFolder"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(StripJSONComments(data), &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse rush manifest"), "path", path)
	}

	entries := make([]domain.PackageEntry, 0, len(doc.Projects))
	for _, p := range doc.Projects {
		if p.PackageName == "" || p.ProjectFolder == "" {
			continue
		}
		entries = append(entries, domain.PackageEntry{
			Name: domain.NewInternedString(p.PackageName),
			Path: domain.NewInternedString(filepath.Join(root, filepath.FromSlash(p.ProjectFolder))),
		})
	}
	return entries, nil
}
