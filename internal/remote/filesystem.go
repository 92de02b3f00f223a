package remote

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/folio/internal/model"
)

// FSProvider serves a local directory tree as the remote content source.
// It is the provider used when the content tree is synced to disk by an
// external client.
type FSProvider struct {
	root     string
	debounce time.Duration
}

// NewFSProvider creates a provider rooted at dir.
func NewFSProvider(dir string) (*FSProvider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	return &FSProvider{root: abs, debounce: 500 * time.Millisecond}, nil
}

// List walks dir recursively. Entries are returned in lexical order.
func (p *FSProvider) List(ctx context.Context, dir string) ([]model.FileRecord, error) {
	base, err := p.resolve(dir)
	if err != nil {
		return nil, err
	}

	var out []model.FileRecord
	err = filepath.WalkDir(base, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if full == base {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(p.root, full)
		if err != nil {
			return err
		}
		out = append(out, model.FileRecord{
			Path:       "/" + filepath.ToSlash(rel),
			IsDir:      d.IsDir(),
			ModifiedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return out, nil
}

// Read returns the content of the file at p.
func (p *FSProvider) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := p.resolve(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is resolved under the provider root
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Watch calls onChange (debounced) whenever something below the root
// changes, until ctx is done. New subdirectories are watched as they appear.
func (p *FSProvider) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := p.addTree(watcher, p.root); err != nil {
		_ = watcher.Close()
		return err
	}

	slog.Info("Watching content root", "root", p.root)
	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := p.addTree(watcher, ev.Name); err != nil {
							slog.Warn("Failed to watch new directory", "path", ev.Name, "error", err)
						}
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(p.debounce, onChange)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Content watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (p *FSProvider) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if full != p.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(full); err != nil {
			return fmt.Errorf("watch %s: %w", full, err)
		}
		return nil
	})
}

// resolve maps a slash path rooted at "/" onto the provider root.
func (p *FSProvider) resolve(name string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(name), "/"))
	full := filepath.Join(p.root, filepath.FromSlash(cleaned))
	if full != p.root && !strings.HasPrefix(full, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes content root", name)
	}
	return full, nil
}
