package tools

import (
	"os"
	"path/filepath"
)

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

// PrepareOutputFile creates the folder of the given output file
func PrepareOutputFile(filePath string) error {
	return CreateDirectoryIfDoesNotExist(filepath.Dir(filePath))
}
