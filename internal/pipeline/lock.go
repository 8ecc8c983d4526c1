package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"drumviz/internal/services"
)

// acquireOutputLock takes the advisory lock at path guarding output. The
// lock file is never removed; unlinking a flock file lets a waiting process
// lock an orphaned inode while a newcomer locks a fresh one.
func acquireOutputLock(path, output string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "", "create lock directory", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "", "acquire output lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrLocked, "lock", "",
			fmt.Sprintf("another render is writing %s", output), nil)
	}
	return lock, nil
}
