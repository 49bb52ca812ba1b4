package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
)

// factoryVendor marks packages shipped with Bitwig Studio itself.
const factoryVendor = "Bitwig"

// DiscoverPackages finds installed packages under root. The install layout is
// installed-packages/<version>/<vendor>/<package>/.
func DiscoverPackages(root string) ([]catalog.Package, error) {
	installed := filepath.Join(root, "installed-packages")
	versions, err := os.ReadDir(installed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var packages []catalog.Package
	for _, versionDir := range versions {
		if !versionDir.IsDir() {
			continue
		}
		vendors, err := os.ReadDir(filepath.Join(installed, versionDir.Name()))
		if err != nil {
			continue
		}
		for _, vendorDir := range vendors {
			if !vendorDir.IsDir() {
				continue
			}
			pkgs, err := os.ReadDir(filepath.Join(installed, versionDir.Name(), vendorDir.Name()))
			if err != nil {
				continue
			}
			for _, pkgDir := range pkgs {
				if !pkgDir.IsDir() {
					continue
				}
				packages = append(packages, catalog.Package{
					Name:      pkgDir.Name(),
					Vendor:    vendorDir.Name(),
					Version:   versionDir.Name(),
					Path:      filepath.Join(installed, versionDir.Name(), vendorDir.Name(), pkgDir.Name()),
					IsFactory: vendorDir.Name() == factoryVendor,
				})
			}
		}
	}
	return packages, nil
}

// walkContent calls fn for every indexable file under root. Unreadable
// directories are skipped, not fatal. Cancellation is honored between
// entries.
func walkContent(ctx context.Context, root string, fn func(path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories hold app state, never content.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := ContentTypeForPath(path); !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
}
