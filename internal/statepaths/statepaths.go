package statepaths

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Eli-32/Ibra/internal/pathutil"
)

const (
	MappingsFilename  = "character-mappings.json"
	LocalSeedFilename = "local-mappings.yaml"
)

func FileStateDir() string {
	return pathutil.ResolveStateDir(viper.GetString("file_state_dir"))
}

func MappingsDir() string {
	return pathutil.ResolveStateChildDir(
		viper.GetString("file_state_dir"),
		viper.GetString("mappings.dir_name"),
		"mappings",
	)
}

func MappingsPath() string {
	return filepath.Join(MappingsDir(), MappingsFilename)
}

func LocalSeedPath() string {
	return filepath.Join(MappingsDir(), LocalSeedFilename)
}
