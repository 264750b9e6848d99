package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"docmd/common"
	"docmd/config"
	"docmd/gdocs"
	"docmd/state"
)

// buildOutputPath returns constructed output file path/name for a pulled
// document. It uses either default naming scheme or user-defined template,
// cleans the result up and if requested transliterates it.
func buildOutputPath(meta *gdocs.DocMeta, dst string, target config.PullTarget, env *state.LocalEnv) string {
	docSlug := common.Slug(meta.Name)
	defaultFile := docSlug + target.Ext()

	if env.Cfg.Document.Pull.OutputNameTemplate == "" {
		return filepath.Join(dst, defaultFile)
	}

	expandedName := expandOutputNameTemplate(meta, docSlug, target, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(dst, defaultFile)
	}

	return assemblePathWithSubdirs(dst, expandedName, target, env)
}

func expandOutputNameTemplate(meta *gdocs.DocMeta, docSlug string, target config.PullTarget, env *state.LocalEnv) string {
	expandedName, err := expandOutputName(env.Cfg.Document.Pull.OutputNameTemplate, meta, docSlug, strings.TrimPrefix(target.Ext(), "."))
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, target config.PullTarget, env *state.LocalEnv) string {
	outExt := target.Ext()
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	// template may or may not produce the extension, either way the target
	// decides what it really is
	fileName := strings.TrimSuffix(pathSegments[len(pathSegments)-1], outExt)
	fileName = cleanPathSegment(fileName, env) + outExt

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
		path = head
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.Pull.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
