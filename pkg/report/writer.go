package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbase/workspace-usage/internal/logctx"
	"github.com/kbase/workspace-usage/pkg/aggregate"
	"github.com/kbase/workspace-usage/pkg/logging"
	"github.com/kbase/workspace-usage/pkg/wsindex"
)

// EnsureOutputDir creates outDir if needed and verifies it is a writable
// directory. This runs before any store work so a bad destination fails the
// job immediately.
func EnsureOutputDir(outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("couldn't create or read output directory %s: %w", outDir, err)
	}
	info, err := os.Stat(outDir)
	if err != nil {
		return fmt.Errorf("couldn't create or read output directory %s: %w", outDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", outDir)
	}
	probe, err := os.CreateTemp(outDir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("cannot write to directory %s: %w", outDir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// Write writes all JSON artifacts into outDir. Files only appear after the
// whole aggregation pass has succeeded; each is written via tmp+rename so a
// crash mid-write never leaves a truncated artifact behind.
func Write(ctx context.Context, outDir string, index wsindex.Index, res *aggregate.Result, env *MonthlyEnvelope) error {
	log := logctx.FromContext(ctx)
	start := time.Now()

	artifacts := []struct {
		name    string
		payload interface{}
	}{
		{UserFile, BuildUserReport(res.Users, res.Types)},
		{WorkspaceFile, BuildWorkspaceReport(index, res.Workspaces)},
		{ObjectFile, res.Objects},
		{MonthFile, env},
	}

	for _, a := range artifacts {
		if err := writeJSON(outDir, a.name, a.payload); err != nil {
			return err
		}
		log.Info().Str("file", a.name).Msg("report written")
	}

	logging.PhaseComplete(log, "write", time.Since(start))
	return nil
}

// writeJSON marshals v and atomically replaces outDir/name.
func writeJSON(outDir, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	final := filepath.Join(outDir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s to %s: %w", tmp, final, err)
	}
	return nil
}
