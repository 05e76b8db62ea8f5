package portfolio

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pkt.systems/termfolio/schema"
)

// FileSource reads a YAML content file on every call.
type FileSource struct {
	Path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the whole file.
func (s *FileSource) Load(ctx context.Context) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Content{}, fmt.Errorf("read content %s: %w", s.Path, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a content document.
func ParseYAML(data []byte) (Content, error) {
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return Content{}, fmt.Errorf("parse content: %w", err)
	}
	return content, nil
}

func (s *FileSource) Profile(ctx context.Context) (schema.Profile, error) {
	content, err := s.Load(ctx)
	if err != nil {
		return schema.Profile{}, err
	}
	return Static{Content: content}.Profile(ctx)
}

func (s *FileSource) Skills(ctx context.Context) ([]schema.Skill, error) {
	content, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(content.Skills), nil
}

func (s *FileSource) Projects(ctx context.Context) ([]schema.Project, error) {
	content, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(content.Projects), nil
}

func (s *FileSource) Experiences(ctx context.Context) ([]schema.Experience, error) {
	content, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(content.Experience), nil
}

func (s *FileSource) Education(ctx context.Context) ([]schema.Education, error) {
	content, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(content.Education), nil
}
