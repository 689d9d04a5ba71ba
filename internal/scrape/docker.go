package scrape

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultImage is the maps scraper container image.
const DefaultImage = "gosom/google-maps-scraper"

const queriesFile = "queries.txt"

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. The process is killed when ctx is
// done.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DockerOptions configures the Docker provider.
type DockerOptions struct {
	Image  string
	RawDir string
	Runner Runner
}

// Docker runs the maps scraper container with the raw data directory
// mounted at /data. Runs sharing a raw directory must not overlap.
type Docker struct {
	image  string
	rawDir string
	runner Runner
}

// NewDocker creates a Docker provider.
func NewDocker(opts DockerOptions) (*Docker, error) {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.RawDir == "" {
		opts.RawDir = "raw_data"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	dir, err := filepath.Abs(opts.RawDir)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: resolve raw dir %s", opts.RawDir)
	}
	return &Docker{image: opts.Image, rawDir: dir, runner: opts.Runner}, nil
}

// Name implements Provider.
func (d *Docker) Name() string { return "docker" }

// Scrape implements Provider.
func (d *Docker) Scrape(ctx context.Context, q Query) (string, error) {
	if strings.TrimSpace(q.Keyword) == "" {
		return "", eris.New("scrape: empty keyword")
	}
	if err := os.MkdirAll(d.rawDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "scrape: create raw dir %s", d.rawDir)
	}
	if err := os.WriteFile(filepath.Join(d.rawDir, queriesFile), []byte(q.Keyword+"\n"), 0o644); err != nil {
		return "", eris.Wrap(err, "scrape: write query file")
	}

	name := ResultFileName(q.Keyword)
	out := filepath.Join(d.rawDir, name)
	_ = os.Remove(out)

	if output, err := d.runner.Run(ctx, "docker", d.Args(q, name)...); err != nil {
		return "", eris.Wrapf(err, "scrape: docker run: %s", tail(output, 512))
	}

	if _, err := os.Stat(out); err != nil {
		return "", eris.Wrapf(err, "scrape: scraper produced no results file %s", name)
	}
	return out, nil
}

// Args returns the docker command line for q writing to resultName.
func (d *Docker) Args(q Query, resultName string) []string {
	lang := q.Language
	if lang == "" {
		lang = "pl"
	}
	depth := q.Depth
	if depth < 1 {
		depth = 1
	}

	args := []string{
		"run", "--rm",
		"-v", d.rawDir + ":/data",
		d.image,
		"-input", "/data/" + queriesFile,
		"-results", "/data/" + resultName,
		"-lang", lang,
		"-depth", strconv.Itoa(depth),
	}
	if q.Geo.Valid() {
		args = append(args,
			"-geo", formatCoord(q.Geo.Lat)+","+formatCoord(q.Geo.Lon),
			"-radius", strconv.FormatFloat(q.Geo.RadiusM, 'f', -1, 64),
		)
	}
	return args
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
