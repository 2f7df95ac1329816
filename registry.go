package main

import (
	"debug/buildinfo"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PackageName 版本查詢的固定套件
const PackageName = "dataclass_codec"

// develVersion 從工作目錄建置時主模組的版本
const develVersion = "(devel)"

// ErrPackageNotFound 中繼資料中找不到套件
var ErrPackageNotFound = errors.New("找不到套件")

// Registry 套件中繼資料來源
type Registry interface {
	Lookup(name string) (string, error)
}

// BuildInfoRegistry 以 Go 建置資訊作為套件中繼資料
type BuildInfoRegistry struct {
	// Binary 讀取指定執行檔的建置資訊，空字串代表目前程序
	Binary string

	// Override 取代主模組的 (devel) 版本 (由 ldflags 注入)
	Override string

	readBuildInfo func() (*debug.BuildInfo, bool)
	readFile      func(path string) (*debug.BuildInfo, error)
}

// NewBuildInfoRegistry 建立建置資訊來源
func NewBuildInfoRegistry(binary, override string) *BuildInfoRegistry {
	return &BuildInfoRegistry{
		Binary:        binary,
		Override:      override,
		readBuildInfo: debug.ReadBuildInfo,
		readFile:      buildinfo.ReadFile,
	}
}

// Lookup 查詢提供該套件之模組的版本
func (r *BuildInfoRegistry) Lookup(name string) (string, error) {
	info, err := r.load()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPackageNotFound, name, err)
	}

	mod, isMain := resolveModule(info, name)
	if mod == nil {
		return "", fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}

	version := mod.Version
	if mod.Replace != nil && mod.Replace.Version != "" {
		version = mod.Replace.Version
	}
	if isMain && version == develVersion && r.Override != "" {
		version = r.Override
	}

	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("%w: %s: 模組 %s 沒有版本資訊", ErrPackageNotFound, name, mod.Path)
	}
	return version, nil
}

func (r *BuildInfoRegistry) load() (*debug.BuildInfo, error) {
	if r.Binary != "" {
		info, err := r.readFile(r.Binary)
		if err != nil {
			return nil, fmt.Errorf("讀取建置資訊失敗: %w", err)
		}
		return info, nil
	}

	info, ok := r.readBuildInfo()
	if !ok || info == nil {
		return nil, errors.New("執行檔不含建置資訊")
	}
	return info, nil
}

// resolveModule 找出路徑最長且包含該套件的模組，長度相同時主模組優先
func resolveModule(info *debug.BuildInfo, name string) (*debug.Module, bool) {
	var best *debug.Module
	isMain := false

	if providesPackage(info.Main.Path, name) {
		mainMod := info.Main
		best, isMain = &mainMod, true
	}

	for _, dep := range info.Deps {
		if dep == nil || !providesPackage(dep.Path, name) {
			continue
		}
		if best == nil || len(dep.Path) > len(best.Path) {
			best, isMain = dep, false
		}
	}
	return best, isMain
}

func providesPackage(modulePath, name string) bool {
	if modulePath == "" {
		return false
	}
	return name == modulePath || strings.HasPrefix(name, modulePath+"/")
}
