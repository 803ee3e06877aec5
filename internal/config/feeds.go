package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bartek5186/feedsync/internal/feed"
	"gopkg.in/yaml.v3"
)

const DefaultFeedInterval = 3600 // sekundy

// FeedJob to jeden plik *.yaml w feeds_dir:
//
//	name: sklep-demo
//	user_id: tenant-1
//	url: https://shop.example.com/catalog.xml
//	format: shop_catalog
//	interval_seconds: 1800
type FeedJob struct {
	Name            string      `yaml:"name"`
	UserID          string      `yaml:"user_id"`
	URL             string      `yaml:"url"`
	Format          feed.Format `yaml:"-"`
	FormatName      string      `yaml:"format"`
	IntervalSeconds int         `yaml:"interval_seconds"`
	Enabled         *bool       `yaml:"enabled"`
	File            string      `yaml:"-"`
}

func (j FeedJob) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// LoadFeeds czyta wszystkie *.yaml / *.yml z katalogu. Brak katalogu = brak zadań.
func LoadFeeds(dir string) ([]FeedJob, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob feeds: %w", err)
	}
	yml, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("glob feeds: %w", err)
	}
	files = append(files, yml...)
	sort.Strings(files)

	jobs := make([]FeedJob, 0, len(files))
	names := map[string]string{}
	for _, file := range files {
		job, err := loadFeedFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		if prev, dup := names[job.Name]; dup {
			return nil, fmt.Errorf("duplicate feed name %q in %s and %s", job.Name, prev, file)
		}
		names[job.Name] = file
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func loadFeedFile(path string) (FeedJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FeedJob{}, fmt.Errorf("failed to read file: %w", err)
	}
	var job FeedJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return FeedJob{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	job.File = path
	if err := job.normalize(); err != nil {
		return FeedJob{}, err
	}
	return job, nil
}

func (j *FeedJob) normalize() error {
	j.Name = strings.TrimSpace(j.Name)
	j.UserID = strings.TrimSpace(j.UserID)
	j.URL = strings.TrimSpace(j.URL)

	if j.Name == "" && j.File != "" {
		j.Name = strings.TrimSuffix(filepath.Base(j.File), filepath.Ext(j.File))
	}
	if j.IntervalSeconds == 0 {
		j.IntervalSeconds = DefaultFeedInterval
	}
	if j.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	if !strings.HasPrefix(j.URL, "http://") && !strings.HasPrefix(j.URL, "https://") {
		return fmt.Errorf("feed url must be http(s): %q", j.URL)
	}
	if j.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if j.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must be non-negative")
	}
	if j.FormatName != "" {
		f, err := feed.ParseFormat(j.FormatName)
		if err != nil {
			return err
		}
		j.Format = f
	}
	return nil
}
