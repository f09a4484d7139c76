// Package deployment maps reconstructed components onto the services of a
// docker-compose file by matching service names against source locations.
package deployment

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComposeFilePrefix is the file name prefix FindCompose looks for.
const ComposeFilePrefix = "docker-compose"

// ErrNoServices is returned for compose files without a services section.
var ErrNoServices = errors.New("compose file has no services")

type composeFile struct {
	Services map[string]yaml.Node `yaml:"services"`
}

// ParseCompose returns the service names of a docker-compose document, sorted.
func ParseCompose(r io.Reader) ([]string, error) {
	var doc composeFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoServices
		}
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, ErrNoServices
	}
	services := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		services = append(services, name)
	}
	sort.Strings(services)
	return services, nil
}

// FindCompose walks root and returns the first file, in lexical walk order,
// whose name contains the compose prefix. It returns "" when there is none.
func FindCompose(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.Contains(d.Name(), ComposeFilePrefix) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search compose file under %s: %w", root, err)
	}
	return found, nil
}

// LoadCompose finds and parses the compose file under root. A missing file
// yields no services and no error.
func LoadCompose(root string) ([]string, error) {
	path, err := FindCompose(root)
	if err != nil || path == "" {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open compose file: %w", err)
	}
	defer f.Close()
	return ParseCompose(f)
}

// Group maps each service to the components whose first source location
// contains the service name. Components without locations are not grouped.
// Services without components are omitted.
func Group(services []string, locations map[string][]string) map[string][]string {
	groups := make(map[string][]string)
	for component, locs := range locations {
		if len(locs) == 0 {
			continue
		}
		for _, service := range services {
			if strings.Contains(filepath.ToSlash(locs[0]), service) {
				groups[service] = append(groups[service], component)
			}
		}
	}
	for _, members := range groups {
		sort.Strings(members)
	}
	return groups
}
