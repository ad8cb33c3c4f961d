package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/youzoom64/RTMP-streamer/pkg/assets"
)

// PositionMap is an explicit layer-name to file mapping exported alongside
// the layer images (position_map.json). It takes precedence over the index.
//
// File format:
//
//	{"layers": {"目/普通目": {"file": "eyes/normal.png"}, ...}}
//
// Either "file" or "path" may name the image, relative to the asset root.
type PositionMap struct {
	root    string
	entries map[string]string // normalized layer name -> relative file
	sum     string
}

type positionMapFile struct {
	Layers map[string]json.RawMessage `json:"layers"`
}

type positionMapLayer struct {
	File string `json:"file"`
	Path string `json:"path"`
}

// LoadPositionMap reads a position map file. Relative file names are
// resolved against root.
func LoadPositionMap(file, root string) (*PositionMap, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("resolver: read position map: %w", err)
	}
	return ParsePositionMap(data, root)
}

// ParsePositionMap parses position map JSON. Layer entries that are not
// objects or name no file are ignored.
func ParsePositionMap(data []byte, root string) (*PositionMap, error) {
	var f positionMapFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("resolver: parse position map: %w", err)
	}
	sum := sha256.Sum256(data)
	pm := &PositionMap{
		root:    root,
		entries: make(map[string]string, len(f.Layers)),
		sum:     hex.EncodeToString(sum[:8]),
	}
	for name, raw := range f.Layers {
		var l positionMapLayer
		if err := json.Unmarshal(raw, &l); err != nil {
			continue
		}
		file := l.File
		if file == "" {
			file = l.Path
		}
		if file == "" {
			continue
		}
		pm.entries[assets.Normalize(name)] = file
	}
	return pm, nil
}

// Fingerprint identifies the content the map was parsed from. It is empty
// for a nil map.
func (pm *PositionMap) Fingerprint() string {
	if pm == nil {
		return ""
	}
	return pm.sum
}

// Len returns the number of usable entries.
func (pm *PositionMap) Len() int {
	if pm == nil {
		return 0
	}
	return len(pm.entries)
}

// Find tries the logical path, its marker-stripped form and its last
// segment. A hit counts only if the mapped file exists. A nil map never
// matches.
func (pm *PositionMap) Find(logicalPath string) (string, bool) {
	if pm == nil || len(pm.entries) == 0 {
		return "", false
	}
	for _, k := range []string{logicalPath, assets.StripMarkers(logicalPath), lastSegment(logicalPath)} {
		file, ok := pm.entries[assets.Normalize(k)]
		if !ok {
			continue
		}
		p := filepath.Join(pm.root, filepath.FromSlash(file))
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
