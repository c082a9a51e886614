package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/lascloud/internal/options"
)

type FileFinder interface {
	GetLasFilesToProcess(opts *options.Options) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetLasFilesToProcess(opts *options.Options) ([]string, error) {
	// If folder processing is not enabled then las file is given by -input flag, otherwise look for las in -input folder
	// eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getLasFilesFromInputFolder(opts)
}

func isPointCloudFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".las" || ext == ".laz"
}

// .laz files are listed too so that they are reported as unsupported rather than silently skipped
func (f *StandardFileFinder) getLasFilesFromInputFolder(opts *options.Options) ([]string, error) {
	var lasFiles = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if !info.IsDir() && isPointCloudFile(info.Name()) {
				lasFiles = append(lasFiles, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(lasFiles)
	return lasFiles, nil
}
