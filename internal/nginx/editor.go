package nginx

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Directive patterns. The upstream keepalive is matched inside the
// "upstream backend" block only, so a keepalive directive anywhere else
// in the file is left alone.
var (
	workerConnRe   = regexp.MustCompile(`worker_connections\s+\d+;`)
	keepaliveOutRe = regexp.MustCompile(`keepalive_timeout\s+\d+;`)
	upstreamRe     = regexp.MustCompile(`(?s)(upstream backend \{[^}]*keepalive\s+)\d+(\s*;)`)
)

// Apply rewrites the numeric tokens of the three tuned directives in the
// config file at path, leaving every other byte untouched. The caller is
// expected to treat an error as "config unchanged" and carry on; the
// search loop deliberately does not abort on a failed edit.
func Apply(p Params, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read nginx config: %w", err)
	}

	content := string(data)
	content = workerConnRe.ReplaceAllString(content,
		fmt.Sprintf("worker_connections %d;", p.WorkerConnections))
	content = keepaliveOutRe.ReplaceAllString(content,
		fmt.Sprintf("keepalive_timeout %d;", p.KeepaliveTimeout))
	content = upstreamRe.ReplaceAllString(content,
		"${1}"+strconv.Itoa(p.UpstreamKeepalive)+"${2}")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write nginx config: %w", err)
	}
	return nil
}
