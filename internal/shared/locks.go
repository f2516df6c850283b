package shared

import "fmt"

// JobLockKey builds redis keys for job critical sections.
func JobLockKey(job string) string {
	return fmt.Sprintf("paintworks:job:%s:lock", job)
}
