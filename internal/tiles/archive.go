package tiles

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// ExportArchive writes the pyramid rooted at tileRoot to w as a zip. Entries
// are prefixed with the root's base name.
func ExportArchive(ctx context.Context, tileRoot string, w io.Writer) error {
	if _, err := os.Stat(filepath.Join(tileRoot, DescriptorFile)); err != nil {
		return errors.Wrap(err, "tile root has no descriptor")
	}
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		tileRoot: filepath.Base(tileRoot),
	})
	if err != nil {
		return errors.Wrap(err, "failed to collect tiles")
	}
	return archives.Zip{}.Archive(ctx, w, files)
}

// ImportArchive extracts a pyramid archive (zip, tar, rar, ...) into destDir.
// A single top-level directory in the archive is stripped. Returns the
// extracted file paths.
func ImportArchive(ctx context.Context, archivePath, destDir string) ([]string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open archive")
	}

	prefix, err := commonRoot(fsys)
	if err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(path, prefix)
		destPath := filepath.Join(destDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("archive entry %q escapes destination", path)
		}

		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, reader); err != nil {
			return err
		}
		files = append(files, destPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(destDir, DescriptorFile)); err != nil {
		return files, errors.New("archive does not contain a pyramid descriptor")
	}
	return files, nil
}

// commonRoot returns "name/" when the archive holds exactly one top-level
// directory and nothing else.
func commonRoot(fsys fs.FS) (string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", errors.Wrap(err, "failed to list archive")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return entries[0].Name() + "/", nil
	}
	return "", nil
}
