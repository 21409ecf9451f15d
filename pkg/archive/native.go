package archive

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/serverlessresearch/alcl/pkg/deploy"
	"github.com/sirupsen/logrus"
)

// All entries carry this modification time so identical trees produce
// identical archives.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Native writes the archive with archive/zip instead of an external tool.
type Native struct {
	Logger logrus.FieldLogger
}

func (n *Native) Build(workDir, stateDir string) (string, error) {
	dst := Path(stateDir)
	if err := prepare(dst); err != nil {
		return "", err
	}

	n.Logger.Infof("zip %s into %s", workDir, dst)
	if err := n.zipTree(workDir, stateDir, dst); err != nil {
		return "", deploy.Wrap(deploy.ArchiveFailure, err, "cannot build archive "+dst)
	}
	return dst, nil
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// treeWriter adds a directory tree to an archive, following symlinks the way
// zip -r does.
type treeWriter struct {
	zip      *zip.Writer
	stateDir string
	logger   logrus.FieldLogger
	// Resolved directories currently being walked, to break link cycles.
	active map[string]bool
}

func (n *Native) zipTree(workDir, stateDir, dstPath string) (rerr error) {
	// Walk resolved paths so the state directory is recognized even when
	// it is reached through a link.
	stateReal, err := filepath.EvalSymlinks(stateDir)
	if err != nil {
		return err
	}

	destFile, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := destFile.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	zipWriter := zip.NewWriter(destFile)
	defer func() {
		if err := zipWriter.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	w := &treeWriter{
		zip:      zipWriter,
		stateDir: stateReal,
		logger:   n.Logger,
		active:   map[string]bool{},
	}
	return w.addTree(workDir, "")
}

// addTree archives the contents of dir under the entry prefix.
func (w *treeWriter) addTree(dir, prefix string) error {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if w.active[root] {
		w.logger.Warnf("skipping %s: symlink loop", prefix)
		return nil
	}
	w.active[root] = true
	defer delete(w.active, root)

	// filepath.Walk visits entries in lexical order, which keeps the archive
	// layout stable between runs.
	return filepath.Walk(root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if within(filePath, w.stateDir) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if filePath == root {
			return nil
		}

		relPath, err := filepath.Rel(root, filePath)
		if err != nil {
			return errors.Wrap(err, "Couldn't make relative path while zipping")
		}
		name := path.Join(prefix, filepath.ToSlash(relPath))

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Stat(filePath)
			if err != nil {
				w.logger.Warnf("skipping %s: %v", name, err)
				return nil
			}
			if target.IsDir() {
				if err := w.addDir(name); err != nil {
					return err
				}
				return w.addTree(filePath, name)
			}
			info = target
		}

		switch {
		case info.IsDir():
			return w.addDir(name)
		case info.Mode().IsRegular():
			return addFile(w.zip, filePath, name, info.Mode())
		}
		return nil
	})
}

func (w *treeWriter) addDir(name string) error {
	_, err := w.zip.CreateHeader(header(name+"/", 0755|os.ModeDir, zip.Store))
	return err
}

func header(name string, mode os.FileMode, method uint16) *zip.FileHeader {
	h := &zip.FileHeader{Name: name, Method: method, Modified: epoch}
	h.SetMode(mode)
	return h
}

func addFile(zipWriter *zip.Writer, filePath, name string, mode os.FileMode) error {
	perm := os.FileMode(0644)
	if mode&0111 != 0 {
		perm = 0755
	}

	writer, err := zipWriter.CreateHeader(header(name, perm, zip.Deflate))
	if err != nil {
		return err
	}

	sourceFile, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	_, err = io.Copy(writer, sourceFile)
	return err
}
