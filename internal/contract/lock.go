package contract

import (
	"fmt"
	"os"
	"strings"
)

// VerifyLock compares the loaded document's fingerprint against the digest
// committed to the lock file. Content drift fails the check; CI runs this on
// every build.
func (d *Document) VerifyLock(lockPath string) error {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return fmt.Errorf("read contract lock: %w", err)
	}
	locked := strings.TrimSpace(string(data))
	if locked == "" {
		return fmt.Errorf("contract lock %s is empty", lockPath)
	}
	if locked != d.fingerprint {
		return fmt.Errorf("contract fingerprint drift: lock has %s, content is %s", locked, d.fingerprint)
	}
	return nil
}

// WriteLock records the current fingerprint into the lock file.
func (d *Document) WriteLock(lockPath string) error {
	return os.WriteFile(lockPath, []byte(d.fingerprint+"\n"), 0o644)
}
