// Package transcript persists run results as line-delimited JSON, one
// PassRecord per line in step order. This is the replayable audit format
// callers rely on; field names come from the orchestrator types.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/promptd/internal/orchestrator"
)

// Write streams each pass of the result to w as one JSON object per line.
func Write(w io.Writer, result *orchestrator.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range result.Passes {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode pass %d: %w", rec.Step, err)
		}
	}
	return nil
}

// WriteFile writes the transcript to path, creating parent directories.
func WriteFile(path string, result *orchestrator.RunResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := Write(bw, result); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush transcript: %w", err)
	}
	return f.Close()
}

// ReadPasses parses a line-delimited transcript back into pass records.
// Blank lines are skipped; a malformed line fails the whole read.
func ReadPasses(r io.Reader) ([]orchestrator.PassRecord, error) {
	var passes []orchestrator.PassRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec orchestrator.PassRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse transcript line %d: %w", line, err)
		}
		passes = append(passes, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return passes, nil
}

// ReadFile parses the transcript at path.
func ReadFile(path string) ([]orchestrator.PassRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return ReadPasses(f)
}
