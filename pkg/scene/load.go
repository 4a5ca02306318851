package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// rawScene mirrors the wire format of one scene record.
type rawScene struct {
	ID            string         `json:"id"`
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// sceneFile is the envelope used by scene files: either a bare array of
// scenes or an object with a "scenes" key (the format the scene producer
// writes alongside its run metadata).
type sceneFile struct {
	Scenes []rawScene `json:"scenes"`
}

// Parse decodes a batch of scene graphs from JSON. Scenes that fail
// structural validation are returned as errors alongside the good ones so
// the caller can log and skip them individually.
func Parse(r io.Reader) ([]*Scene, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read scenes: %w", err)
	}

	var raws []rawScene
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, nil, fmt.Errorf("decode scenes: %w", err)
		}
	} else {
		var file sceneFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("decode scenes: %w", err)
		}
		raws = file.Scenes
	}

	scenes := make([]*Scene, 0, len(raws))
	var bad []error
	for i, raw := range raws {
		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("scene_%06d", i)
		}
		s, err := New(id, raw.Entities, raw.Relationships)
		if err != nil {
			bad = append(bad, err)
			continue
		}
		scenes = append(scenes, s)
	}
	return scenes, bad, nil
}

// LoadFile reads scene graphs from a JSON file on disk.
func LoadFile(path string) ([]*Scene, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open scenes file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
