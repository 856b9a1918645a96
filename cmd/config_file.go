package cmd

import (
	"os"

	"github.com/haierkeys/content-revision-service/pkg/fileurl"

	"github.com/pkg/errors"
)

// configCandidates 未指定配置文件时按顺序查找
var configCandidates = []string{
	"config/config-dev.yaml",
	"config.yaml",
	"config/config.yaml",
}

// findConfig returns the first existing candidate, or "" when none exists
func findConfig() string {
	for _, p := range configCandidates {
		if fileurl.IsExist(p) {
			return p
		}
	}
	return ""
}

// writeDefaultConfig 将内置的默认配置写到 path
func writeDefaultConfig(path string) error {
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(path, []byte(configDefault), 0666); err != nil {
		return errors.Wrap(err, "config file auto create writing error")
	}
	return nil
}
