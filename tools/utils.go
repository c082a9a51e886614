package tools

import (
	"encoding/json"
	"path/filepath"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

func FmtJSONIndent(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}

// DefaultOutputFile names the output of a command next to its input,
// e.g. /data/tile.las becomes /data/tile_reproject.las.
func DefaultOutputFile(inputPath string, command string) string {
	name := GetFilenameWithoutExtension(inputPath) + "_" + command + ".las"
	return filepath.Join(filepath.Dir(inputPath), name)
}
