package levels

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// debounce drops repeated events for the same file inside this window
const debounce = 100 * time.Millisecond

// Watcher reports level files that changed on disk
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the given directories
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes its channels
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsLevelFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Watch invalidates cached levels as their files change until ctx is done.
// onChange, when set, receives the id of every reloaded level.
func (m *Manager) Watch(ctx context.Context, onChange func(id string)) error {
	w, err := NewWatcher(m.levelDir)
	if err != nil {
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-w.Events:
				if !ok {
					return
				}
				id := LevelID(path)
				m.Invalidate(id)
				if id == DefaultLevelID {
					if err := m.loadDefaultLevel(); err != nil {
						logrus.WithError(err).Warn("failed to reload default level")
					}
				}
				logrus.WithFields(logrus.Fields{"level": id, "file": path}).Info("level file changed")
				if onChange != nil {
					onChange(id)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("level watcher error")
			}
		}
	}()
	return nil
}
